// Package app composes the supply core, the engagement ledger, and storage
// into atomic protocol operations. Every state transition runs inside one
// storage transaction so balances, counters, and emitted records commit
// together or not at all.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Theras-Labs/theras-boost-protocol/internal/engagement"
	apperrors "github.com/Theras-Labs/theras-boost-protocol/internal/platform/errors"
	"github.com/Theras-Labs/theras-boost-protocol/internal/platform/id"
	"github.com/Theras-Labs/theras-boost-protocol/internal/storage"
	"github.com/Theras-Labs/theras-boost-protocol/internal/supply"
)

const tracerName = "github.com/Theras-Labs/theras-boost-protocol/internal/app"

// Service executes protocol operations against a storage backend.
type Service struct {
	store  storage.Store
	now    func() time.Time
	newID  func() (string, error)
	tracer trace.Tracer
}

// New creates a protocol service. A nil clock defaults to time.Now.
func New(store storage.Store, now func() time.Time) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  store,
		now:    now,
		newID:  id.NewID,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Initialize creates the singleton supply state. A repeat call fails and
// leaves the original state untouched.
func (s *Service) Initialize(ctx context.Context, authority, vaultReference string) (supply.State, error) {
	ctx, span := s.tracer.Start(ctx, "supply.initialize")
	defer span.End()

	state, err := supply.NewState(authority, vaultReference, s.now())
	if err != nil {
		return supply.State{}, err
	}
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		if err := tx.InitializeSupplyState(ctx, state); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return supply.ErrAlreadyInitialized
			}
			return err
		}
		return nil
	})
	if err != nil {
		return supply.State{}, err
	}
	return state, nil
}

// SupplyState returns the current supply state.
func (s *Service) SupplyState(ctx context.Context) (supply.State, error) {
	state, err := s.store.SupplyState(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return supply.State{}, supply.ErrNotInitialized
		}
		return supply.State{}, err
	}
	return state, nil
}

// Mint issues amount credits to the user and records matching collateral.
// Only the supply authority may call it.
func (s *Service) Mint(ctx context.Context, caller, user string, amount uint64) (supply.MintRecord, error) {
	ctx, span := s.tracer.Start(ctx, "supply.mint")
	defer span.End()

	var record supply.MintRecord
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		state, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		next, rec, err := state.Mint(caller, user, amount, s.now())
		if err != nil {
			return err
		}
		rec.ID, err = s.newID()
		if err != nil {
			return fmt.Errorf("generate record id: %w", err)
		}
		// The mint capability is machine-owned; present the vault identity,
		// never the caller key.
		if err := tx.MintTo(ctx, next.VaultReference, user, amount, s.now()); err != nil {
			return apperrors.Wrap(apperrors.CodeLedgerFailure, "credit user on token ledger", err)
		}
		if err := tx.UpdateSupplyState(ctx, next); err != nil {
			return err
		}
		if err := tx.AppendMintRecord(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return supply.MintRecord{}, err
	}
	return record, nil
}

// RedeemCatalog burns the user's credits for a catalog item. Collateral
// stays in the vault as realized revenue.
func (s *Service) RedeemCatalog(ctx context.Context, user, itemID string, amount uint64) (supply.RedemptionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "supply.redeem_catalog")
	defer span.End()

	var record supply.RedemptionRecord
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		state, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		next, rec, err := state.RedeemCatalog(user, itemID, amount, s.now())
		if err != nil {
			return err
		}
		rec.ID, err = s.newID()
		if err != nil {
			return fmt.Errorf("generate record id: %w", err)
		}
		if err := tx.BurnFrom(ctx, user, user, amount, s.now()); err != nil {
			if errors.Is(err, storage.ErrInsufficientBalance) {
				return apperrors.New(apperrors.CodeInsufficientBalance, "user balance is insufficient")
			}
			return apperrors.Wrap(apperrors.CodeLedgerFailure, "burn user credits", err)
		}
		if err := tx.UpdateSupplyState(ctx, next); err != nil {
			return err
		}
		if err := tx.AppendRedemptionRecord(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return supply.RedemptionRecord{}, err
	}
	return record, nil
}

// RedeemStablecoin burns the user's credits and releases equal collateral
// from the vault to the user.
func (s *Service) RedeemStablecoin(ctx context.Context, user string, amount uint64) (supply.RedemptionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "supply.redeem_stablecoin")
	defer span.End()

	var record supply.RedemptionRecord
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		state, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		next, rec, err := state.RedeemStablecoin(user, amount, s.now())
		if err != nil {
			return err
		}
		rec.ID, err = s.newID()
		if err != nil {
			return fmt.Errorf("generate record id: %w", err)
		}
		if err := tx.BurnFrom(ctx, user, user, amount, s.now()); err != nil {
			if errors.Is(err, storage.ErrInsufficientBalance) {
				return apperrors.New(apperrors.CodeInsufficientBalance, "user balance is insufficient")
			}
			return apperrors.Wrap(apperrors.CodeLedgerFailure, "burn user credits", err)
		}
		// The vault is owned by the state machine capability, never the caller.
		if err := tx.Transfer(ctx, next.VaultReference, user, next.VaultReference, amount, s.now()); err != nil {
			return apperrors.Wrap(apperrors.CodeLedgerFailure, "release vault collateral", err)
		}
		if err := tx.UpdateSupplyState(ctx, next); err != nil {
			return err
		}
		if err := tx.AppendRedemptionRecord(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return supply.RedemptionRecord{}, err
	}
	return record, nil
}

// DepositCollateral records an inbound reserve deposit to the vault. Only
// the supply authority may call it; the supply counters do not move until
// the matching mint.
func (s *Service) DepositCollateral(ctx context.Context, caller string, amount uint64) error {
	ctx, span := s.tracer.Start(ctx, "supply.deposit_collateral")
	defer span.End()

	if amount == 0 {
		return supply.ErrInvalidAmount
	}
	return s.store.RunInTx(ctx, func(tx storage.Tx) error {
		state, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		if caller != state.Authority {
			return supply.ErrUnauthorized
		}
		if err := tx.CreditReserve(ctx, state.VaultReference, amount, s.now()); err != nil {
			return apperrors.Wrap(apperrors.CodeLedgerFailure, "credit vault reserve", err)
		}
		return nil
	})
}

// UpdateVaultReference points the supply state at a new vault account.
func (s *Service) UpdateVaultReference(ctx context.Context, caller, newVault string) (supply.State, error) {
	ctx, span := s.tracer.Start(ctx, "supply.update_vault_reference")
	defer span.End()

	return s.updateState(ctx, func(state supply.State) (supply.State, error) {
		return state.UpdateVaultReference(caller, newVault, s.now())
	})
}

// SetPaused toggles the operational pause flag.
func (s *Service) SetPaused(ctx context.Context, caller string, paused bool) (supply.State, error) {
	ctx, span := s.tracer.Start(ctx, "supply.set_paused")
	defer span.End()

	return s.updateState(ctx, func(state supply.State) (supply.State, error) {
		return state.SetPaused(caller, paused, s.now())
	})
}

// TransferAuthority hands the supply authority to a new identity. The
// transfer takes effect immediately.
func (s *Service) TransferAuthority(ctx context.Context, caller, newAuthority string) (supply.State, error) {
	ctx, span := s.tracer.Start(ctx, "supply.transfer_authority")
	defer span.End()

	return s.updateState(ctx, func(state supply.State) (supply.State, error) {
		return state.TransferAuthority(caller, newAuthority, s.now())
	})
}

func (s *Service) updateState(ctx context.Context, apply func(supply.State) (supply.State, error)) (supply.State, error) {
	var result supply.State
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		state, err := loadState(ctx, tx)
		if err != nil {
			return err
		}
		next, err := apply(state)
		if err != nil {
			return err
		}
		if err := tx.UpdateSupplyState(ctx, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return supply.State{}, err
	}
	return result, nil
}

func loadState(ctx context.Context, tx storage.Tx) (supply.State, error) {
	state, err := tx.SupplyState(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return supply.State{}, supply.ErrNotInitialized
		}
		return supply.State{}, err
	}
	return state, nil
}

// CreditBalance returns the user's credit balance on the token ledger.
func (s *Service) CreditBalance(ctx context.Context, account string) (uint64, error) {
	return s.store.CreditBalance(ctx, account)
}

// ReserveBalance returns the account's reserve-asset balance.
func (s *Service) ReserveBalance(ctx context.Context, account string) (uint64, error) {
	return s.store.ReserveBalance(ctx, account)
}

// ListMintRecords returns one page of emitted mint records.
func (s *Service) ListMintRecords(ctx context.Context, pageSize int, pageToken string) (storage.MintRecordPage, error) {
	return s.store.ListMintRecords(ctx, pageSize, pageToken)
}

// ListRedemptionRecords returns one page of emitted redemption records.
func (s *Service) ListRedemptionRecords(ctx context.Context, pageSize int, pageToken string) (storage.RedemptionRecordPage, error) {
	return s.store.ListRedemptionRecords(ctx, pageSize, pageToken)
}

// CreateProject registers a game project on the engagement ledger.
func (s *Service) CreateProject(ctx context.Context, authority, projectKey string, boostEnabled bool) (engagement.Project, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.create_project")
	defer span.End()

	project, err := engagement.NewProject(authority, projectKey, boostEnabled, s.now())
	if err != nil {
		return engagement.Project{}, err
	}
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateProject(ctx, project); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return apperrors.New(apperrors.CodeAlreadyExists, "project already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return engagement.Project{}, err
	}
	return project, nil
}

// RegisterUser adds a wallet to a project. Wallets enroll themselves: the
// caller must be the wallet being registered.
func (s *Service) RegisterUser(ctx context.Context, caller, projectKey, wallet string) (engagement.User, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.register_user")
	defer span.End()

	if err := requireWalletOwner(caller, wallet); err != nil {
		return engagement.User{}, err
	}
	var user engagement.User
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		project, err := loadProject(ctx, tx, projectKey)
		if err != nil {
			return err
		}
		nextProject, u, rec, err := project.RegisterUser(wallet, s.now())
		if err != nil {
			return err
		}
		rec.ID, err = s.newID()
		if err != nil {
			return fmt.Errorf("generate record id: %w", err)
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return apperrors.New(apperrors.CodeAlreadyExists, "user already registered")
			}
			return err
		}
		if err := tx.UpdateProject(ctx, nextProject); err != nil {
			return err
		}
		if err := tx.AppendEventRecord(ctx, rec); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return engagement.User{}, err
	}
	return user, nil
}

// RecordDailyLogin credits one login for the user if the cooldown elapsed.
// Only the wallet owner may record their own login.
func (s *Service) RecordDailyLogin(ctx context.Context, caller, projectKey, wallet string) (engagement.EventRecord, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.record_daily_login")
	defer span.End()

	return s.recordEvent(ctx, caller, projectKey, wallet, func(p engagement.Project, u engagement.User) (engagement.Project, engagement.User, engagement.EventRecord, error) {
		return engagement.RecordDailyLogin(p, u, s.now())
	})
}

// RecordQuest credits one quest completion for the user.
func (s *Service) RecordQuest(ctx context.Context, caller, projectKey, wallet, questID string) (engagement.EventRecord, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.record_quest")
	defer span.End()

	return s.recordEvent(ctx, caller, projectKey, wallet, func(p engagement.Project, u engagement.User) (engagement.Project, engagement.User, engagement.EventRecord, error) {
		return engagement.RecordQuest(p, u, questID, s.now())
	})
}

// RecordReferral credits one referral for the user.
func (s *Service) RecordReferral(ctx context.Context, caller, projectKey, wallet string) (engagement.EventRecord, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.record_referral")
	defer span.End()

	return s.recordEvent(ctx, caller, projectKey, wallet, func(p engagement.Project, u engagement.User) (engagement.Project, engagement.User, engagement.EventRecord, error) {
		return engagement.RecordReferral(p, u, s.now())
	})
}

func (s *Service) recordEvent(ctx context.Context, caller, projectKey, wallet string, apply func(engagement.Project, engagement.User) (engagement.Project, engagement.User, engagement.EventRecord, error)) (engagement.EventRecord, error) {
	if err := requireWalletOwner(caller, wallet); err != nil {
		return engagement.EventRecord{}, err
	}
	var record engagement.EventRecord
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		project, err := loadProject(ctx, tx, projectKey)
		if err != nil {
			return err
		}
		user, err := loadUser(ctx, tx, projectKey, wallet)
		if err != nil {
			return err
		}
		nextProject, nextUser, rec, err := apply(project, user)
		if err != nil {
			return err
		}
		rec.ID, err = s.newID()
		if err != nil {
			return fmt.Errorf("generate record id: %w", err)
		}
		if err := tx.UpdateProject(ctx, nextProject); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, nextUser); err != nil {
			return err
		}
		if err := tx.AppendEventRecord(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return engagement.EventRecord{}, err
	}
	return record, nil
}

// AddEarned records credits distributed to a user after a mint. Only the
// project authority may call it.
func (s *Service) AddEarned(ctx context.Context, caller, projectKey, wallet string, amount uint64) (engagement.User, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.add_earned")
	defer span.End()

	var user engagement.User
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		project, err := loadProject(ctx, tx, projectKey)
		if err != nil {
			return err
		}
		u, err := loadUser(ctx, tx, projectKey, wallet)
		if err != nil {
			return err
		}
		next, err := project.AddEarned(caller, u, amount, s.now())
		if err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, next); err != nil {
			return err
		}
		user = next
		return nil
	})
	if err != nil {
		return engagement.User{}, err
	}
	return user, nil
}

// SetBoostEnabled toggles protocol participation for a project.
func (s *Service) SetBoostEnabled(ctx context.Context, caller, projectKey string, enabled bool) (engagement.Project, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.set_boost_enabled")
	defer span.End()

	var project engagement.Project
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		current, err := loadProject(ctx, tx, projectKey)
		if err != nil {
			return err
		}
		next, err := current.SetBoostEnabled(caller, enabled, s.now())
		if err != nil {
			return err
		}
		if err := tx.UpdateProject(ctx, next); err != nil {
			return err
		}
		project = next
		return nil
	})
	if err != nil {
		return engagement.Project{}, err
	}
	return project, nil
}

// Project returns one project by key.
func (s *Service) Project(ctx context.Context, projectKey string) (engagement.Project, error) {
	project, err := s.store.Project(ctx, projectKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return engagement.Project{}, engagement.ErrInvalidProject
		}
		return engagement.Project{}, err
	}
	return project, nil
}

// User returns one project user.
func (s *Service) User(ctx context.Context, projectKey, wallet string) (engagement.User, error) {
	user, err := s.store.User(ctx, projectKey, wallet)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return engagement.User{}, apperrors.New(apperrors.CodeInvalidUser, "user is not registered")
		}
		return engagement.User{}, err
	}
	return user, nil
}

func loadProject(ctx context.Context, tx storage.Tx, projectKey string) (engagement.Project, error) {
	project, err := tx.Project(ctx, projectKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return engagement.Project{}, engagement.ErrInvalidProject
		}
		return engagement.Project{}, err
	}
	return project, nil
}

// requireWalletOwner binds an engagement event to the wallet it credits.
// The caller identity stands in for the wallet's own signature.
func requireWalletOwner(caller, wallet string) error {
	caller = strings.TrimSpace(caller)
	wallet = strings.TrimSpace(wallet)
	if caller == "" || caller != wallet {
		return apperrors.New(apperrors.CodeInvalidUser, "caller does not own wallet")
	}
	return nil
}

func loadUser(ctx context.Context, tx storage.Tx, projectKey, wallet string) (engagement.User, error) {
	user, err := tx.User(ctx, projectKey, wallet)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return engagement.User{}, apperrors.New(apperrors.CodeInvalidUser, "user is not registered")
		}
		return engagement.User{}, err
	}
	return user, nil
}
