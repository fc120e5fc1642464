package ledger

import (
	"testing"

	"kardex/internal/core/types"
)

func TestParseReasonNormalization(t *testing.T) {
	tests := []struct {
		raw  string
		kind ReasonKind
	}{
		{"New Stock", KindNewStock},
		{"  new stock  ", KindNewStock},
		{"RESTOCK", KindRestock},
		{"Initial Stock", KindInitialStock},
		{"Stock Transfer In", KindTransferIn},
		{"Expired", KindExpired},
		{"damaged", KindDamaged},
		{"Lost/Stolen", KindLostStolen},
		{"write-off", KindWriteOff},
		{"Stock Transfer Out", KindTransferOut},
		{"Sale", KindSale},
		{"Stock Count", KindStockCount},
		{"Inventory Correction", KindInventoryCorrection},
		{"Returned - damaged box", KindReturn},
		{"returned", KindReturn},
		{"Promotional giveaway", KindOther},
	}

	for _, tt := range tests {
		r, err := ParseReason(tt.raw)
		if err != nil {
			t.Errorf("ParseReason(%q) error: %v", tt.raw, err)
			continue
		}
		if r.Kind != tt.kind {
			t.Errorf("ParseReason(%q).Kind = %d, want %d", tt.raw, r.Kind, tt.kind)
		}
	}
}

func TestParseReasonBlankRejected(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t"} {
		if _, err := ParseReason(raw); err == nil {
			t.Errorf("ParseReason(%q) should fail", raw)
		}
	}
}

func TestValidateChangeSignRules(t *testing.T) {
	tests := []struct {
		reason string
		change string
		ok     bool
	}{
		{"New Stock", "5", true},
		{"New Stock", "-5", false},
		{"New Stock", "0", false},
		{"Restock", "0.5", true},
		{"Expired", "-3", true},
		{"Expired", "3", false},
		{"Damaged", "-1", true},
		{"Damaged", "2", false},
		{"Returned by customer", "2", true},
		{"Returned by customer", "-2", false},
		{"Sale", "-1", true},
		{"Sale", "1", false},
		{"Stock Count", "4", true},
		{"Stock Count", "-4", true},
		{"Correction", "-10", true},
		{"Shrinkage review", "-7", true},
		{"Shrinkage review", "7", true},
	}

	for _, tt := range tests {
		r, err := ParseReason(tt.reason)
		if err != nil {
			t.Fatalf("ParseReason(%q): %v", tt.reason, err)
		}
		err = r.ValidateChange(types.MustFromString(tt.change))
		if tt.ok && err != nil {
			t.Errorf("%q with change %s: unexpected error %v", tt.reason, tt.change, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%q with change %s: expected sign violation", tt.reason, tt.change)
		}
	}
}

func TestSystemOnlyReasons(t *testing.T) {
	r, _ := ParseReason("Sale")
	if !r.SystemOnly() {
		t.Error("sale must be system-only")
	}
	r, _ = ParseReason("New Stock")
	if r.SystemOnly() {
		t.Error("new stock must be recordable manually")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		reason string
		change string
		want   Bucket
	}{
		{"Sale", "-2", BucketSales},
		{"Stock Count", "3", BucketAdjustments},
		{"Correction", "-3", BucketAdjustments},
		{"Returned unused", "2", BucketStockIn},
		{"New Stock", "10", BucketStockIn},
		{"Damaged", "-1", BucketStockOut},
		{"Promo", "5", BucketStockIn},
		{"Promo", "-5", BucketStockOut},
	}

	for _, tt := range tests {
		r, err := ParseReason(tt.reason)
		if err != nil {
			t.Fatalf("ParseReason(%q): %v", tt.reason, err)
		}
		got := Classify(r, types.MustFromString(tt.change))
		if got != tt.want {
			t.Errorf("Classify(%q, %s) = %s, want %s", tt.reason, tt.change, got, tt.want)
		}
	}
}
