// Package indexer polls the TON hot wallet and credits every incoming transfer
// to the internal token ledger.
package indexer

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/username-escrow/backend/internal/escrow"
	"github.com/username-escrow/backend/internal/ton"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	liteapi "github.com/xssnick/tonutils-go/ton"
	"go.uber.org/zap"
)

const (
	redisCursorLT   = "ton-indexer:cursor:lt"
	redisCursorHash = "ton-indexer:cursor:hash"
	txBatchSize     = 100

	TokenTON = "TON"
)

// Crediter is the part of escrow.Escrow the indexer needs.
type Crediter interface {
	CreditDeposit(ctx context.Context, d escrow.Deposit) (bool, error)
}

type Indexer struct {
	api       liteapi.APIClientWrapped
	hotWallet *address.Address
	crediter  Crediter
	rdb       *redis.Client
	log       *zap.Logger
}

func New(api liteapi.APIClientWrapped, hotWallet *address.Address, crediter Crediter, rdb *redis.Client, log *zap.Logger) *Indexer {
	return &Indexer{
		api:       api,
		hotWallet: hotWallet,
		crediter:  crediter,
		rdb:       rdb,
		log:       log,
	}
}

// InitCursor sets the initial cursor position on first run: only transactions
// arriving after startup are processed.
func (ix *Indexer) InitCursor(ctx context.Context) {
	existing, _ := ix.rdb.Get(ctx, redisCursorLT).Result()
	if existing != "" {
		ix.log.Info("resuming from saved cursor", zap.String("lt", existing))
		return
	}

	account, err := ix.account(ctx)
	if err != nil {
		ix.log.Warn("failed to get account for cursor init", zap.Error(err))
		ix.rdb.Set(ctx, redisCursorLT, "0", 0)
		return
	}

	if account == nil || !account.IsActive || account.LastTxLT == 0 {
		ix.log.Info("hot wallet not active yet, starting from LT=0")
		ix.rdb.Set(ctx, redisCursorLT, "0", 0)
		return
	}

	ix.saveCursor(ctx, account.LastTxLT, account.LastTxHash)
	ix.log.Info("cursor initialized at current account state",
		zap.Uint64("lt", account.LastTxLT),
		zap.String("hash", hex.EncodeToString(account.LastTxHash)),
	)
}

// Poll runs a single cycle:
// 1. Get the account's latest state
// 2. Fetch all transactions newer than the cursor
// 3. Credit incoming TON transfers
// 4. Advance the cursor
func (ix *Indexer) Poll(ctx context.Context) error {
	cursorLT := ix.loadCursorLT(ctx)

	account, err := ix.account(ctx)
	if err != nil {
		return err
	}
	if account == nil || !account.IsActive || account.LastTxLT == 0 {
		return nil
	}
	if account.LastTxLT <= cursorLT {
		return nil
	}

	txs, err := ix.fetchNewTransactions(ctx, account, cursorLT)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}

	if len(txs) > 0 {
		ix.log.Info("found new transactions", zap.Int("count", len(txs)))
	}
	for _, tx := range txs {
		d, ok := DepositFromTx(tx)
		if !ok {
			continue
		}
		// Не двигаем курсор, если зачисление не прошло: повторим в следующем цикле.
		// CreditDeposit дедуплицирует по Ref.
		if _, err := ix.crediter.CreditDeposit(ctx, d); err != nil {
			return fmt.Errorf("credit deposit %s: %w", d.Ref, err)
		}
	}

	ix.saveCursor(ctx, account.LastTxLT, account.LastTxHash)
	return nil
}

func (ix *Indexer) account(ctx context.Context) (*tlb.Account, error) {
	block, err := ix.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get master block: %w", err)
	}
	account, err := ix.api.GetAccount(ctx, block, ix.hotWallet)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// fetchNewTransactions retrieves all transactions with LT > cursorLT.
// ListTransactions pages backwards; the result is returned oldest first.
func (ix *Indexer) fetchNewTransactions(ctx context.Context, account *tlb.Account, cursorLT uint64) ([]*tlb.Transaction, error) {
	var all []*tlb.Transaction

	lt := account.LastTxLT
	hash := account.LastTxHash

	for {
		txs, err := ix.api.ListTransactions(ctx, ix.hotWallet, uint32(txBatchSize), lt, hash)
		if err != nil {
			return nil, fmt.Errorf("list transactions (lt=%d): %w", lt, err)
		}
		if len(txs) == 0 {
			break
		}

		reachedCursor := false
		for _, tx := range txs {
			if tx.LT <= cursorLT {
				reachedCursor = true
				continue
			}
			all = append(all, tx)
		}

		if reachedCursor || len(txs) < txBatchSize {
			break
		}

		oldest := txs[0]
		if oldest.PrevTxLT == 0 {
			break
		}
		lt = oldest.PrevTxLT
		hash = oldest.PrevTxHash
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].LT < all[j].LT
	})
	return all, nil
}

func (ix *Indexer) loadCursorLT(ctx context.Context) uint64 {
	val, err := ix.rdb.Get(ctx, redisCursorLT).Result()
	if err != nil || val == "" {
		return 0
	}
	lt, _ := strconv.ParseUint(val, 10, 64)
	return lt
}

func (ix *Indexer) saveCursor(ctx context.Context, lt uint64, hash []byte) {
	ix.rdb.Set(ctx, redisCursorLT, strconv.FormatUint(lt, 10), 0)
	ix.rdb.Set(ctx, redisCursorHash, hex.EncodeToString(hash), 0)
}

// DepositFromTx turns an incoming non-bounced TON transfer into a ledger
// deposit. The sender is credited unless the text comment names another
// wallet address.
func DepositFromTx(tx *tlb.Transaction) (escrow.Deposit, bool) {
	if tx == nil || tx.IO.In == nil {
		return escrow.Deposit{}, false
	}

	inMsg, ok := tx.IO.In.Msg.(*tlb.InternalMessage)
	if !ok || inMsg == nil || inMsg.Bounced || inMsg.SrcAddr == nil {
		return escrow.Deposit{}, false
	}

	nano := inMsg.Amount.Nano()
	if nano.Sign() <= 0 || !nano.IsInt64() {
		return escrow.Deposit{}, false
	}

	to := inMsg.SrcAddr.StringRaw()
	if comment := extractComment(inMsg); comment != "" {
		if beneficiary, err := ton.NormalizeAddress(comment); err == nil {
			to = beneficiary
		}
	}

	return escrow.Deposit{
		Ref:    fmt.Sprintf("ton:%d:%s", tx.LT, hex.EncodeToString(tx.Hash)),
		To:     to,
		Token:  TokenTON,
		Amount: nano.Int64(),
	}, true
}

// extractComment parses a text comment from an InternalMessage body.
// TON text comments have opcode 0x00000000 followed by UTF-8 text.
func extractComment(inMsg *tlb.InternalMessage) string {
	body := inMsg.Body
	if body == nil {
		return ""
	}

	slice := body.BeginParse()
	if slice.BitsLeft() < 32 {
		return ""
	}

	op, err := slice.LoadUInt(32)
	if err != nil || op != 0 {
		return ""
	}

	remaining := slice.BitsLeft()
	if remaining < 8 {
		return ""
	}

	data, err := slice.LoadSlice(remaining)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
