package supply

import (
	"fmt"
	"strings"
	"time"
)

// Mint validates an authority mint and returns the next state and the
// record to emit. The caller must credit the user on the external token
// ledger within the same atomic boundary.
func (s State) Mint(caller, user string, amount uint64, now time.Time) (State, MintRecord, error) {
	if err := s.requireAuthority(caller); err != nil {
		return State{}, MintRecord{}, err
	}
	if err := s.guardTransition(amount); err != nil {
		return State{}, MintRecord{}, err
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return State{}, MintRecord{}, fmt.Errorf("user is required")
	}

	supply, err := checkedAdd(s.TotalSupply, amount)
	if err != nil {
		return State{}, MintRecord{}, err
	}
	// Backing is assumed deposited before the mint was authorized.
	collateral, err := checkedAdd(s.TotalCollateral, amount)
	if err != nil {
		return State{}, MintRecord{}, err
	}

	now = now.UTC()
	s.TotalSupply = supply
	s.TotalCollateral = collateral
	s.UpdatedAt = now
	return s, MintRecord{
		User:      user,
		Amount:    amount,
		Timestamp: now,
	}, nil
}

// RedeemCatalog validates a catalog redemption and returns the next state
// and the record to emit. Supply decreases; collateral does not move. The
// caller must burn the user's credits on the external token ledger within
// the same atomic boundary; insufficient balance surfaces from the ledger,
// not from this check.
func (s State) RedeemCatalog(user, itemID string, amount uint64, now time.Time) (State, RedemptionRecord, error) {
	if err := s.guardTransition(amount); err != nil {
		return State{}, RedemptionRecord{}, err
	}
	if len(itemID) > MaxItemIDLength {
		return State{}, RedemptionRecord{}, ErrItemIDTooLong
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return State{}, RedemptionRecord{}, fmt.Errorf("user is required")
	}

	// Unreachable when the ledger burn succeeded, since total supply is the
	// sum of all outstanding ledger balances.
	supply, err := checkedSub(s.TotalSupply, amount)
	if err != nil {
		return State{}, RedemptionRecord{}, err
	}

	now = now.UTC()
	s.TotalSupply = supply
	s.UpdatedAt = now
	return s, RedemptionRecord{
		User:      user,
		Kind:      RedemptionKindCatalog,
		ItemID:    itemID,
		Amount:    amount,
		Timestamp: now,
	}, nil
}

// RedeemStablecoin validates a stablecoin redemption and returns the next
// state and the record to emit. This is the only transition that releases
// collateral, and it mirrors the supply decrease exactly. The caller must
// burn the user's credits and pay out the vault within the same atomic
// boundary, with the vault debit signed by the state machine's own
// capability rather than any user key.
func (s State) RedeemStablecoin(user string, amount uint64, now time.Time) (State, RedemptionRecord, error) {
	if err := s.guardTransition(amount); err != nil {
		return State{}, RedemptionRecord{}, err
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return State{}, RedemptionRecord{}, fmt.Errorf("user is required")
	}

	supply, err := checkedSub(s.TotalSupply, amount)
	if err != nil {
		return State{}, RedemptionRecord{}, err
	}
	collateral, err := checkedSub(s.TotalCollateral, amount)
	if err != nil {
		return State{}, RedemptionRecord{}, ErrInsufficientCollateral
	}

	now = now.UTC()
	s.TotalSupply = supply
	s.TotalCollateral = collateral
	s.UpdatedAt = now
	return s, RedemptionRecord{
		User:      user,
		Kind:      RedemptionKindStablecoin,
		Amount:    amount,
		Timestamp: now,
	}, nil
}
