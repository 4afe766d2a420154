package supply

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestState(t *testing.T) State {
	t.Helper()
	state, err := NewState("authority-1", "vault-1", testNow)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return state
}

func TestNewStateZeroCounters(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	if state.TotalSupply != 0 || state.TotalCollateral != 0 {
		t.Fatalf("counters = %d/%d, want 0/0", state.TotalSupply, state.TotalCollateral)
	}
	if state.Paused {
		t.Fatal("expected new state to be unpaused")
	}
	if state.Authority != "authority-1" || state.VaultReference != "vault-1" {
		t.Fatalf("identity fields = %q/%q, want authority-1/vault-1", state.Authority, state.VaultReference)
	}
}

func TestNewStateRequiresIdentities(t *testing.T) {
	t.Parallel()

	if _, err := NewState("", "vault-1", testNow); err == nil {
		t.Fatal("expected error for empty authority")
	}
	if _, err := NewState("authority-1", " ", testNow); err == nil {
		t.Fatal("expected error for empty vault reference")
	}
}

func TestMintIncrementsSupplyAndCollateral(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	next, record, err := state.Mint("authority-1", "user-1", 1000, testNow)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if next.TotalSupply != 1000 || next.TotalCollateral != 1000 {
		t.Fatalf("counters = %d/%d, want 1000/1000", next.TotalSupply, next.TotalCollateral)
	}
	if record.Amount != 1000 || record.User != "user-1" {
		t.Fatalf("record = %+v, want amount 1000 for user-1", record)
	}
	if state.TotalSupply != 0 {
		t.Fatal("expected original state to stay unchanged")
	}
}

func TestMintRejectsNonAuthority(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	_, _, err := state.Mint("someone-else", "user-1", 10, testNow)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestMintGuards(t *testing.T) {
	t.Parallel()

	state := newTestState(t)

	if _, _, err := state.Mint("authority-1", "user-1", 0, testNow); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount err = %v, want ErrInvalidAmount", err)
	}

	paused, err := state.SetPaused("authority-1", true, testNow)
	if err != nil {
		t.Fatalf("set paused: %v", err)
	}
	if _, _, err := paused.Mint("authority-1", "user-1", 1, testNow); !errors.Is(err, ErrProgramPaused) {
		t.Fatalf("paused err = %v, want ErrProgramPaused", err)
	}
}

func TestMintOverflowIsFatal(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	state.TotalSupply = math.MaxUint64
	state.TotalCollateral = math.MaxUint64

	_, _, err := state.Mint("authority-1", "user-1", 1, testNow)
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("err = %v, want ErrArithmeticOverflow", err)
	}
}

func TestRedeemCatalogLeavesCollateral(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	state, _, err := state.Mint("authority-1", "user-1", 1000, testNow)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	next, record, err := state.RedeemCatalog("user-1", "item-42", 200, testNow)
	if err != nil {
		t.Fatalf("redeem catalog: %v", err)
	}
	if next.TotalSupply != 800 || next.TotalCollateral != 1000 {
		t.Fatalf("counters = %d/%d, want 800/1000", next.TotalSupply, next.TotalCollateral)
	}
	if record.Kind != RedemptionKindCatalog || record.ItemID != "item-42" || record.Amount != 200 {
		t.Fatalf("record = %+v, want catalog item-42 amount 200", record)
	}
}

func TestRedeemCatalogItemIDBound(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	state, _, err := state.Mint("authority-1", "user-1", 1000, testNow)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	longID := ""
	for i := 0; i < MaxItemIDLength+1; i++ {
		longID += "x"
	}
	_, _, err = state.RedeemCatalog("user-1", longID, 1, testNow)
	if !errors.Is(err, ErrItemIDTooLong) {
		t.Fatalf("err = %v, want ErrItemIDTooLong", err)
	}

	// Exactly 64 characters is allowed.
	if _, _, err := state.RedeemCatalog("user-1", longID[:MaxItemIDLength], 1, testNow); err != nil {
		t.Fatalf("64-char item id: %v", err)
	}
}

func TestRedeemCatalogUnderflowIsFatal(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	_, _, err := state.RedeemCatalog("user-1", "item-1", 5, testNow)
	if !errors.Is(err, ErrArithmeticUnderflow) {
		t.Fatalf("err = %v, want ErrArithmeticUnderflow", err)
	}
}

func TestRedeemStablecoinReleasesCollateral(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	state, _, err := state.Mint("authority-1", "user-1", 1000, testNow)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	next, record, err := state.RedeemStablecoin("user-1", 300, testNow)
	if err != nil {
		t.Fatalf("redeem stablecoin: %v", err)
	}
	if next.TotalSupply != 700 || next.TotalCollateral != 700 {
		t.Fatalf("counters = %d/%d, want 700/700", next.TotalSupply, next.TotalCollateral)
	}
	if record.Kind != RedemptionKindStablecoin || record.ItemID != "" || record.Amount != 300 {
		t.Fatalf("record = %+v, want stablecoin amount 300 without item id", record)
	}
}

func TestRedeemStablecoinInsufficientCollateral(t *testing.T) {
	t.Parallel()

	// Catalog redemptions leave collateral above supply, so the supply check
	// trips first when over-redeeming. Force the inverse bookkeeping shape to
	// exercise the collateral guard on its own.
	state := newTestState(t)
	state.TotalSupply = 500
	state.TotalCollateral = 200

	_, _, err := state.RedeemStablecoin("user-1", 300, testNow)
	if !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("err = %v, want ErrInsufficientCollateral", err)
	}
}

func TestScenarioMintThenBothRedemptions(t *testing.T) {
	t.Parallel()

	state := newTestState(t)

	state, _, err := state.Mint("authority-1", "user-1", 1000, testNow)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if state.TotalSupply != 1000 || state.TotalCollateral != 1000 {
		t.Fatalf("after mint = %d/%d, want 1000/1000", state.TotalSupply, state.TotalCollateral)
	}

	state, _, err = state.RedeemCatalog("user-1", "item-42", 200, testNow)
	if err != nil {
		t.Fatalf("redeem catalog: %v", err)
	}
	if state.TotalSupply != 800 || state.TotalCollateral != 1000 {
		t.Fatalf("after catalog = %d/%d, want 800/1000", state.TotalSupply, state.TotalCollateral)
	}

	state, _, err = state.RedeemStablecoin("user-1", 300, testNow)
	if err != nil {
		t.Fatalf("redeem stablecoin: %v", err)
	}
	if state.TotalSupply != 500 || state.TotalCollateral != 700 {
		t.Fatalf("after stablecoin = %d/%d, want 500/700", state.TotalSupply, state.TotalCollateral)
	}
}

func TestPauseRoundTrip(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	state, err := state.SetPaused("authority-1", true, testNow)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, _, err := state.Mint("authority-1", "user-1", 1, testNow); !errors.Is(err, ErrProgramPaused) {
		t.Fatalf("paused mint err = %v, want ErrProgramPaused", err)
	}
	if _, _, err := state.RedeemCatalog("user-1", "item-1", 1, testNow); !errors.Is(err, ErrProgramPaused) {
		t.Fatalf("paused catalog err = %v, want ErrProgramPaused", err)
	}
	if _, _, err := state.RedeemStablecoin("user-1", 1, testNow); !errors.Is(err, ErrProgramPaused) {
		t.Fatalf("paused stablecoin err = %v, want ErrProgramPaused", err)
	}

	// Admin operations still work while paused.
	state, err = state.UpdateVaultReference("authority-1", "vault-2", testNow)
	if err != nil {
		t.Fatalf("update vault while paused: %v", err)
	}
	if state.VaultReference != "vault-2" {
		t.Fatalf("vault = %q, want vault-2", state.VaultReference)
	}

	state, err = state.SetPaused("authority-1", false, testNow)
	if err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, _, err := state.Mint("authority-1", "user-1", 1, testNow); err != nil {
		t.Fatalf("mint after unpause: %v", err)
	}
}

func TestTransferAuthorityIsImmediate(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	state, err := state.TransferAuthority("authority-1", "authority-2", testNow)
	if err != nil {
		t.Fatalf("transfer authority: %v", err)
	}

	// The old authority is out in a single step; no confirmation phase.
	if _, _, err := state.Mint("authority-1", "user-1", 1, testNow); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old authority err = %v, want ErrUnauthorized", err)
	}
	if _, _, err := state.Mint("authority-2", "user-1", 1, testNow); err != nil {
		t.Fatalf("new authority mint: %v", err)
	}
}

func TestAdminOpsRequireAuthority(t *testing.T) {
	t.Parallel()

	state := newTestState(t)

	if _, err := state.UpdateVaultReference("intruder", "vault-2", testNow); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("vault err = %v, want ErrUnauthorized", err)
	}
	if _, err := state.SetPaused("intruder", true, testNow); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("pause err = %v, want ErrUnauthorized", err)
	}
	if _, err := state.TransferAuthority("intruder", "intruder", testNow); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("transfer err = %v, want ErrUnauthorized", err)
	}
}

func TestSupplyEqualsMintsMinusBurns(t *testing.T) {
	t.Parallel()

	state := newTestState(t)
	var minted, burned uint64

	steps := []struct {
		op     string
		amount uint64
	}{
		{"mint", 500},
		{"catalog", 120},
		{"mint", 250},
		{"stablecoin", 80},
		{"catalog", 50},
		{"stablecoin", 100},
	}
	var stableRedeemed uint64
	for _, step := range steps {
		var err error
		switch step.op {
		case "mint":
			state, _, err = state.Mint("authority-1", "user-1", step.amount, testNow)
			minted += step.amount
		case "catalog":
			state, _, err = state.RedeemCatalog("user-1", "item", step.amount, testNow)
			burned += step.amount
		case "stablecoin":
			state, _, err = state.RedeemStablecoin("user-1", step.amount, testNow)
			burned += step.amount
			stableRedeemed += step.amount
		}
		if err != nil {
			t.Fatalf("%s %d: %v", step.op, step.amount, err)
		}
		if state.TotalSupply != minted-burned {
			t.Fatalf("supply = %d, want %d", state.TotalSupply, minted-burned)
		}
		if state.TotalCollateral != minted-stableRedeemed {
			t.Fatalf("collateral = %d, want %d", state.TotalCollateral, minted-stableRedeemed)
		}
	}
}
