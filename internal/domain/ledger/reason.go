package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kardex/internal/core/apperror"
)

// ReasonKind is the closed set of recognized movement reasons. Unrecognized
// labels map to KindOther, which carries no sign constraint.
type ReasonKind int

const (
	KindOther ReasonKind = iota

	// Positive-only kinds.
	KindInitialStock
	KindNewStock
	KindRestock
	KindTransferIn
	KindReturn // any label starting with "returned", plus restock returns

	// Negative-only kinds.
	KindExpired
	KindDamaged
	KindLost
	KindLostStolen
	KindWriteOff
	KindSpoiled
	KindDestroyed
	KindTransferOut
	KindSale // system-generated only

	// Either sign.
	KindStockCount
	KindCorrection
	KindAdjustment
	KindInventoryCorrection
)

// Sign constraint for a reason kind.
type Sign int

const (
	SignAny Sign = iota
	SignPositive
	SignNegative
)

// Canonical labels written by the system itself.
const (
	ReasonSale           = "Sale"
	ReasonExpired        = "Expired"
	ReasonCustomerReturn = "Customer Return"
	ReasonSaleReversal   = "Sale Reversal"
)

// Reason is a movement reason: a recognized kind plus the raw label as the
// caller supplied it. The raw label is what gets persisted, so historical
// records keep the exact wording while validation runs on the kind.
type Reason struct {
	Kind ReasonKind
	Raw  string
}

var kindByLabel = map[string]ReasonKind{
	"initial stock":      KindInitialStock,
	"new stock":          KindNewStock,
	"restock":            KindRestock,
	"stock transfer in":  KindTransferIn,
	"expired":            KindExpired,
	"damaged":            KindDamaged,
	"lost":               KindLost,
	"lost/stolen":        KindLostStolen,
	"write-off":          KindWriteOff,
	"spoiled":            KindSpoiled,
	"destroyed":          KindDestroyed,
	"stock transfer out": KindTransferOut,
	"sale":               KindSale,

	"stock count":          KindStockCount,
	"correction":           KindCorrection,
	"adjustment":           KindAdjustment,
	"inventory correction": KindInventoryCorrection,
}

// normalize trims and case-folds a raw reason label.
func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseReason normalizes a raw label and resolves its kind.
// A blank label is a validation error; an unrecognized non-blank label
// parses as KindOther.
func ParseReason(raw string) (Reason, error) {
	norm := normalize(raw)
	if norm == "" {
		return Reason{}, apperror.NewValidation("Reason is required")
	}
	if strings.HasPrefix(norm, "returned") {
		return Reason{Kind: KindReturn, Raw: strings.TrimSpace(raw)}, nil
	}
	if kind, ok := kindByLabel[norm]; ok {
		return Reason{Kind: kind, Raw: strings.TrimSpace(raw)}, nil
	}
	return Reason{Kind: KindOther, Raw: strings.TrimSpace(raw)}, nil
}

// Sign returns the sign rule for this reason.
func (r Reason) Sign() Sign {
	switch r.Kind {
	case KindInitialStock, KindNewStock, KindRestock, KindTransferIn, KindReturn:
		return SignPositive
	case KindExpired, KindDamaged, KindLost, KindLostStolen, KindWriteOff,
		KindSpoiled, KindDestroyed, KindTransferOut, KindSale:
		return SignNegative
	default:
		return SignAny
	}
}

// IsAdjustment reports whether this reason is an inventory adjustment.
func (r Reason) IsAdjustment() bool {
	switch r.Kind {
	case KindStockCount, KindCorrection, KindAdjustment, KindInventoryCorrection:
		return true
	}
	return false
}

// SystemOnly reports whether this reason may only be written by the
// service itself, never submitted through the manual movement API.
func (r Reason) SystemOnly() bool {
	return r.Kind == KindSale
}

// ValidateChange checks the change delta against the reason's sign rule.
func (r Reason) ValidateChange(change decimal.Decimal) error {
	switch r.Sign() {
	case SignPositive:
		if change.Sign() <= 0 {
			return apperror.NewValidation(
				fmt.Sprintf("%s must be a positive quantity", r.Raw))
		}
	case SignNegative:
		if change.Sign() >= 0 {
			return apperror.NewValidation(
				fmt.Sprintf("%s must be a negative quantity", r.Raw))
		}
	}
	return nil
}

// Bucket is a reporting classification for movements.
type Bucket string

const (
	BucketSales       Bucket = "sales"
	BucketAdjustments Bucket = "adjustments"
	BucketStockIn     Bucket = "stock_in"
	BucketStockOut    Bucket = "stock_out"
)

// Classify maps a movement to its report bucket. Returns are always
// stock_in regardless of sign; everything else buckets by the delta.
func Classify(reason Reason, change decimal.Decimal) Bucket {
	if reason.Kind == KindSale {
		return BucketSales
	}
	if reason.IsAdjustment() {
		return BucketAdjustments
	}
	if reason.Kind == KindReturn {
		return BucketStockIn
	}
	if change.Sign() > 0 {
		return BucketStockIn
	}
	return BucketStockOut
}
