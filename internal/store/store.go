// Package store is the durable key-value storage the ledger runs on.
// Every key is a (namespace, id) pair; values are JSON documents.
package store

import (
	"context"
	"errors"
	"strconv"
)

type Namespace string

const (
	NSUser         Namespace = "USER" // username -> models.UserProfile
	NSUsernameMap  Namespace = "UMAP" // username -> true
	NSAddress      Namespace = "ADDR" // address -> username
	NSPayment      Namespace = "PAY"  // payment id -> models.Payment
	NSUserPayments Namespace = "UPAY" // username -> []uint64
	NSSequence     Namespace = "SEQ"  // sequence name -> last issued value
	NSBalance      Namespace = "BAL"  // token/address -> int64
	NSDeposit      Namespace = "DEP"  // external ref -> credited deposit
)

var ErrReadOnly = errors.New("store: write in read-only transaction")

type Key struct {
	Namespace Namespace
	ID        string
}

func NewKey(ns Namespace, id string) Key {
	return Key{Namespace: ns, ID: id}
}

func Uint64Key(ns Namespace, id uint64) Key {
	return Key{Namespace: ns, ID: strconv.FormatUint(id, 10)}
}

func (k Key) String() string {
	return string(k.Namespace) + "/" + k.ID
}

// Tx is a view of the store inside one transaction. Writes become visible to
// other transactions only after the enclosing Update returns nil.
type Tx interface {
	Has(ctx context.Context, key Key) (bool, error)
	// Get decodes the value into dst and reports whether the key exists.
	Get(ctx context.Context, key Key, dst any) (bool, error)
	Set(ctx context.Context, key Key, value any) error
}

type Store interface {
	// Update runs fn in a serializable read-write transaction. If fn returns
	// an error nothing it wrote is kept. fn may be invoked more than once.
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// NextSequence increments the named counter and returns the new value.
// The first call for a name returns 1.
func NextSequence(ctx context.Context, tx Tx, name string) (uint64, error) {
	key := NewKey(NSSequence, name)
	var last uint64
	if _, err := tx.Get(ctx, key, &last); err != nil {
		return 0, err
	}
	next := last + 1
	if err := tx.Set(ctx, key, next); err != nil {
		return 0, err
	}
	return next, nil
}
