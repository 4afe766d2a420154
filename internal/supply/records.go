package supply

import "time"

// RedemptionKind distinguishes the two redemption paths.
type RedemptionKind string

const (
	// RedemptionKindCatalog burns credits for catalog value; collateral stays.
	RedemptionKindCatalog RedemptionKind = "catalog"
	// RedemptionKindStablecoin burns credits and releases equal collateral.
	RedemptionKindStablecoin RedemptionKind = "stablecoin"
)

// MintRecord is the append-only notification emitted by a successful mint.
// Amounts always equal the amount requested by the caller.
type MintRecord struct {
	ID        string
	User      string
	Amount    uint64
	Timestamp time.Time
}

// RedemptionRecord is the append-only notification emitted by a successful
// redemption. ItemID is set only for catalog redemptions.
type RedemptionRecord struct {
	ID        string
	User      string
	Kind      RedemptionKind
	ItemID    string
	Amount    uint64
	Timestamp time.Time
}
