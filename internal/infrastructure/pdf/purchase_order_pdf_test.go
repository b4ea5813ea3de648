package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/internal/application/purchasing"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0,00", money(decimal.Zero))
	assert.Equal(t, "$100,00", money(decimal.RequireFromString("100")))
	assert.Equal(t, "$1.234,50", money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$1.000.000,01", money(decimal.RequireFromString("1000000.005")))
	assert.Equal(t, "-$25.000,00", money(decimal.RequireFromString("-25000")))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "999", formatMoney("999"))
	assert.Equal(t, "25.000", formatMoney("25000"))
	assert.Equal(t, "1.000.000", formatMoney("1000000"))
}

func TestGeneratePurchaseOrderPDF(t *testing.T) {
	expected := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	po := &entity.PurchaseOrder{
		ID:          "po-123",
		SupplierID:  "sup-1",
		Status:      entity.POStatusSent,
		OrderedAt:   time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
		ExpectedAt:  &expected,
		TotalAmount: decimal.RequireFromString("100"),
	}
	line := entity.PurchaseOrderLine{ItemID: "item-1", Quantity: 20, UnitCost: decimal.RequireFromString("5")}

	data, err := NewMarotoPDFGenerator("Ferretería El Tornillo").GeneratePurchaseOrderPDF(
		context.Background(), po,
		&entity.Supplier{ID: "sup-1", Name: "distribuidora andina", LeadTimeDays: 5},
		[]purchasing.LineForPDF{{PurchaseOrderLine: line, SKU: "SKU-1", Name: "tornillo 1/4"}},
	)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}
