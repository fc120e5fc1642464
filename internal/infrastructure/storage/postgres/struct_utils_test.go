package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kardex/internal/domain/ledger"
	"kardex/internal/domain/sale"
)

func TestExtractDBColumnsMovement(t *testing.T) {
	cols := ExtractDBColumns[ledger.Movement]()

	expected := []string{
		"id", "tenant_user_id", "branch_id", "product_id", "sale_id",
		"change", "reason", "batch_number", "expiry_date", "location",
		"unit_cost_price", "unit_selling_price", "created_at",
	}
	assert.Equal(t, expected, cols)
}

func TestExtractDBColumnsSkipsIgnored(t *testing.T) {
	// Sale.DeductedBatches is tagged db:"-" and must not leak into SQL.
	cols := ExtractDBColumns[sale.Sale]()

	assert.NotContains(t, cols, "-")
	assert.Contains(t, cols, "receipt_number")
	assert.Contains(t, cols, "client_sale_id")
}
