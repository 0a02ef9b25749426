// Package registry binds usernames to wallet addresses. A username is taken
// by the first successful Register call and never changes owner afterwards.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/username-escrow/backend/internal/auth"
	"github.com/username-escrow/backend/internal/events"
	"github.com/username-escrow/backend/internal/models"
	"github.com/username-escrow/backend/internal/store"
	"go.uber.org/zap"
)

type Registry struct {
	store     store.Store
	authz     auth.Authorizer
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func New(st store.Store, authz auth.Authorizer, publisher events.Publisher, log *zap.Logger) *Registry {
	return &Registry{
		store:     st,
		authz:     authz,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Register claims username for caller.
func (r *Registry) Register(ctx context.Context, caller, username string) (*models.UserProfile, error) {
	// 1. Caller must control the address
	if err := r.authz.Require(ctx, caller); err != nil {
		return nil, err
	}

	// 2. Синтаксис имени
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		Username:  username,
		Address:   caller,
		CreatedAt: r.now().UTC(),
	}

	// 3. Uniqueness check and all three writes in one transaction
	err := r.store.Update(ctx, func(tx store.Tx) error {
		taken, err := isTaken(ctx, tx, username)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", models.ErrUsernameTaken, username)
		}

		if err := tx.Set(ctx, store.NewKey(store.NSUser, username), profile); err != nil {
			return err
		}
		if err := tx.Set(ctx, store.NewKey(store.NSUsernameMap, username), true); err != nil {
			return err
		}
		// reverse index is a plain overwrite: last registration of an address wins
		return tx.Set(ctx, store.NewKey(store.NSAddress, caller), username)
	})
	if err != nil {
		return nil, err
	}

	events.Notify(ctx, r.publisher, r.log, events.Event{
		Type: events.EventUserRegistered,
		Payload: map[string]any{
			"username": username,
			"address":  caller,
		},
	})

	r.log.Info("username registered",
		zap.String("username", username),
		zap.String("address", caller),
	)

	return profile, nil
}

// Profile returns nil when the username is not registered.
func (r *Registry) Profile(ctx context.Context, username string) (*models.UserProfile, error) {
	var profile *models.UserProfile
	err := r.store.View(ctx, func(tx store.Tx) error {
		var err error
		profile, err = LookupProfile(ctx, tx, username)
		return err
	})
	return profile, err
}

// UsernameByAddress reflects only the latest registration made by address.
func (r *Registry) UsernameByAddress(ctx context.Context, address string) (string, bool, error) {
	var (
		username string
		found    bool
	)
	err := r.store.View(ctx, func(tx store.Tx) error {
		var err error
		found, err = tx.Get(ctx, store.NewKey(store.NSAddress, address), &username)
		return err
	})
	return username, found, err
}

// CheckUsername reports whether username is still free. Advisory only:
// Register repeats the same check inside its transaction.
func (r *Registry) CheckUsername(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := r.store.View(ctx, func(tx store.Tx) error {
		var err error
		taken, err = isTaken(ctx, tx, username)
		return err
	})
	return !taken, err
}

// LookupProfile reads a profile inside an existing transaction.
func LookupProfile(ctx context.Context, tx store.Tx, username string) (*models.UserProfile, error) {
	var profile models.UserProfile
	found, err := tx.Get(ctx, store.NewKey(store.NSUser, username), &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

func isTaken(ctx context.Context, tx store.Tx, username string) (bool, error) {
	return tx.Has(ctx, store.NewKey(store.NSUsernameMap, username))
}
