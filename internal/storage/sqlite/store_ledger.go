package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Theras-Labs/theras-boost-protocol/internal/storage"
)

// Token ledger methods (credit and reserve balances)

// MintTo credits amount of the protocol credit to the destination account.
func (q queries) MintTo(ctx context.Context, mintAuthority, destination string, amount uint64, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(mintAuthority) == "" {
		return fmt.Errorf("mint authority is required")
	}
	if strings.TrimSpace(destination) == "" {
		return fmt.Errorf("destination account is required")
	}
	if amount == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	return q.creditAccount(ctx, "token_accounts", destination, amount, now)
}

// BurnFrom debits amount of the protocol credit from the source account.
func (q queries) BurnFrom(ctx context.Context, source, ownerAuthority string, amount uint64, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("source account is required")
	}
	if amount == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if ownerAuthority != source {
		return storage.ErrNotAccountOwner
	}
	return q.debitAccount(ctx, "token_accounts", source, amount, now)
}

// Transfer moves amount of the reserve asset between accounts.
func (q queries) Transfer(ctx context.Context, source, destination, authority string, amount uint64, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("source account is required")
	}
	if strings.TrimSpace(destination) == "" {
		return fmt.Errorf("destination account is required")
	}
	if amount == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if authority != source {
		return storage.ErrNotAccountOwner
	}
	if err := q.debitAccount(ctx, "reserve_accounts", source, amount, now); err != nil {
		return err
	}
	return q.creditAccount(ctx, "reserve_accounts", destination, amount, now)
}

// CreditReserve records an inbound reserve-asset deposit.
func (q queries) CreditReserve(ctx context.Context, destination string, amount uint64, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(destination) == "" {
		return fmt.Errorf("destination account is required")
	}
	if amount == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	return q.creditAccount(ctx, "reserve_accounts", destination, amount, now)
}

// CreditBalance returns the protocol credit balance for one account.
func (q queries) CreditBalance(ctx context.Context, account string) (uint64, error) {
	return q.accountBalance(ctx, "token_accounts", account)
}

// ReserveBalance returns the reserve-asset balance for one account.
func (q queries) ReserveBalance(ctx context.Context, account string) (uint64, error) {
	return q.accountBalance(ctx, "reserve_accounts", account)
}

func (q queries) accountBalance(ctx context.Context, table, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(account) == "" {
		return 0, fmt.Errorf("account is required")
	}
	var balance int64
	row := q.db.QueryRowContext(ctx, `SELECT balance FROM `+table+` WHERE account_id = ?`, account)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s balance: %w", table, err)
	}
	return uint64(balance), nil
}

func (q queries) creditAccount(ctx context.Context, table, account string, amount uint64, now time.Time) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO `+table+` (account_id, balance, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (account_id) DO UPDATE SET
		   balance = balance + excluded.balance,
		   updated_at = excluded.updated_at`,
		account,
		int64(amount),
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("credit %s: %w", table, err)
	}
	return nil
}

func (q queries) debitAccount(ctx context.Context, table, account string, amount uint64, now time.Time) error {
	var balance int64
	row := q.db.QueryRowContext(ctx, `SELECT balance FROM `+table+` WHERE account_id = ?`, account)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrInsufficientBalance
		}
		return fmt.Errorf("read %s balance: %w", table, err)
	}
	if uint64(balance) < amount {
		return storage.ErrInsufficientBalance
	}
	_, err := q.db.ExecContext(
		ctx,
		`UPDATE `+table+` SET balance = balance - ?, updated_at = ? WHERE account_id = ?`,
		int64(amount),
		toMillis(now),
		account,
	)
	if err != nil {
		return fmt.Errorf("debit %s: %w", table, err)
	}
	return nil
}
