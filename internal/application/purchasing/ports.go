package purchasing

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// LineForPDF línea de la orden enriquecida con los datos del ítem para el documento.
type LineForPDF struct {
	entity.PurchaseOrderLine
	SKU  string
	Name string
}

// PurchaseOrderPDFGenerator define el puerto de salida para renderizar la orden para el proveedor.
type PurchaseOrderPDFGenerator interface {
	GeneratePurchaseOrderPDF(
		ctx context.Context,
		po *entity.PurchaseOrder,
		supplier *entity.Supplier,
		lines []LineForPDF,
	) ([]byte, error)
}
