// Package storage defines persistence contracts for the supply state
// machine, the token ledger, and the engagement ledger.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Theras-Labs/theras-boost-protocol/internal/engagement"
	"github.com/Theras-Labs/theras-boost-protocol/internal/supply"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInsufficientBalance indicates an account lacks funds for a burn or transfer.
	ErrInsufficientBalance = errors.New("insufficient account balance")
	// ErrNotAccountOwner indicates the presented authority does not own the account.
	ErrNotAccountOwner = errors.New("authority does not own account")
)

// TokenLedger is the external fungible-balance capability the supply core
// composes with. MintTo and BurnFrom act on credit balances; Transfer acts
// on reserve-asset balances (the collateral side). Balances are never
// inspected by the core: failures surface as ledger errors.
type TokenLedger interface {
	// MintTo credits amount to the destination account at the transition
	// time. The mint authority is the state machine's own capability, not
	// any caller key.
	MintTo(ctx context.Context, mintAuthority, destination string, amount uint64, now time.Time) error
	// BurnFrom debits amount from the source credit account. The owner
	// authority must match the account owner; insufficient balance returns
	// ErrInsufficientBalance.
	BurnFrom(ctx context.Context, source, ownerAuthority string, amount uint64, now time.Time) error
	// Transfer moves amount of the reserve asset between accounts. The
	// authority must own the source account; the vault's owner is the state
	// machine's derived capability.
	Transfer(ctx context.Context, source, destination, authority string, amount uint64, now time.Time) error
	// CreditReserve records an inbound reserve-asset deposit to an account.
	CreditReserve(ctx context.Context, destination string, amount uint64, now time.Time) error
}

// SupplyStore persists the singleton supply state and its emitted records.
type SupplyStore interface {
	// InitializeSupplyState creates the singleton row. A second call
	// returns ErrAlreadyExists and preserves the original row.
	InitializeSupplyState(ctx context.Context, state supply.State) error
	// SupplyState returns the singleton row or ErrNotFound.
	SupplyState(ctx context.Context) (supply.State, error)
	// UpdateSupplyState overwrites the singleton row.
	UpdateSupplyState(ctx context.Context, state supply.State) error
	// AppendMintRecord writes one emitted mint record.
	AppendMintRecord(ctx context.Context, record supply.MintRecord) error
	// AppendRedemptionRecord writes one emitted redemption record.
	AppendRedemptionRecord(ctx context.Context, record supply.RedemptionRecord) error
}

// EngagementStore persists projects, users, and emitted event records.
type EngagementStore interface {
	CreateProject(ctx context.Context, project engagement.Project) error
	Project(ctx context.Context, projectKey string) (engagement.Project, error)
	UpdateProject(ctx context.Context, project engagement.Project) error
	CreateUser(ctx context.Context, user engagement.User) error
	User(ctx context.Context, projectKey, wallet string) (engagement.User, error)
	UpdateUser(ctx context.Context, user engagement.User) error
	AppendEventRecord(ctx context.Context, record engagement.EventRecord) error
}

// Tx is the transactional view handed to one atomic operation. Everything
// performed through it commits together or not at all.
type Tx interface {
	TokenLedger
	SupplyStore
	EngagementStore
}

// MintRecordPage stores one page of emitted mint records.
type MintRecordPage struct {
	Records       []supply.MintRecord
	NextPageToken string
}

// RedemptionRecordPage stores one page of emitted redemption records.
type RedemptionRecordPage struct {
	Records       []supply.RedemptionRecord
	NextPageToken string
}

// Store is the full persistence surface: an atomic transaction runner plus
// read-only queries served outside any transition.
type Store interface {
	// RunInTx executes fn inside one transaction. If fn returns an error the
	// transaction rolls back and no change is observable.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	SupplyState(ctx context.Context) (supply.State, error)
	CreditBalance(ctx context.Context, account string) (uint64, error)
	ReserveBalance(ctx context.Context, account string) (uint64, error)
	ListMintRecords(ctx context.Context, pageSize int, pageToken string) (MintRecordPage, error)
	ListRedemptionRecords(ctx context.Context, pageSize int, pageToken string) (RedemptionRecordPage, error)
	Project(ctx context.Context, projectKey string) (engagement.Project, error)
	User(ctx context.Context, projectKey, wallet string) (engagement.User, error)
}
