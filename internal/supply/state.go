// Package supply implements the collateralized supply state machine for the
// TGEM+ credit. The state machine tracks outstanding supply and committed
// collateral, and gates every transition on authority, pause flag, and
// checked arithmetic. It performs no I/O: callers compose its transitions
// with an external token ledger inside one atomic boundary.
package supply

import (
	"fmt"
	"strings"
	"time"
)

// MaxItemIDLength bounds catalog item identifiers.
const MaxItemIDLength = 64

// State is the singleton supply record for one deployment.
//
// TotalCollateral is incremented in lock-step with supply on mint: the
// authority mints only after verifying a matching reserve deposit, and the
// state machine trusts that verification instead of re-deriving it. Catalog
// redemptions burn supply without releasing collateral, so coverage can
// exceed 100% over time.
type State struct {
	Authority       string
	VaultReference  string
	TotalSupply     uint64
	TotalCollateral uint64
	Paused          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewState creates the initial supply state for a deployment.
func NewState(authority, vaultReference string, now time.Time) (State, error) {
	authority = strings.TrimSpace(authority)
	vaultReference = strings.TrimSpace(vaultReference)
	if authority == "" {
		return State{}, fmt.Errorf("authority is required")
	}
	if vaultReference == "" {
		return State{}, fmt.Errorf("vault reference is required")
	}
	now = now.UTC()
	return State{
		Authority:       authority,
		VaultReference:  vaultReference,
		TotalSupply:     0,
		TotalCollateral: 0,
		Paused:          false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// requireAuthority rejects callers other than the configured authority.
func (s State) requireAuthority(caller string) error {
	if strings.TrimSpace(caller) == "" || caller != s.Authority {
		return ErrUnauthorized
	}
	return nil
}

// guardTransition enforces the preconditions shared by all three supply
// transitions. Admin operations are never pausable and skip this guard.
func (s State) guardTransition(amount uint64) error {
	if s.Paused {
		return ErrProgramPaused
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// UpdateVaultReference repoints the recognized collateral vault. No balance
// moves; the caller is responsible for the new vault's funding.
func (s State) UpdateVaultReference(caller, newVault string, now time.Time) (State, error) {
	if err := s.requireAuthority(caller); err != nil {
		return State{}, err
	}
	newVault = strings.TrimSpace(newVault)
	if newVault == "" {
		return State{}, fmt.Errorf("vault reference is required")
	}
	s.VaultReference = newVault
	s.UpdatedAt = now.UTC()
	return s, nil
}

// SetPaused toggles the emergency circuit breaker for supply transitions.
func (s State) SetPaused(caller string, paused bool, now time.Time) (State, error) {
	if err := s.requireAuthority(caller); err != nil {
		return State{}, err
	}
	s.Paused = paused
	s.UpdatedAt = now.UTC()
	return s, nil
}

// TransferAuthority reassigns control in a single step. The new authority
// takes effect immediately; there is no confirmation phase.
func (s State) TransferAuthority(caller, newAuthority string, now time.Time) (State, error) {
	if err := s.requireAuthority(caller); err != nil {
		return State{}, err
	}
	newAuthority = strings.TrimSpace(newAuthority)
	if newAuthority == "" {
		return State{}, fmt.Errorf("new authority is required")
	}
	s.Authority = newAuthority
	s.UpdatedAt = now.UTC()
	return s, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticUnderflow
	}
	return a - b, nil
}
