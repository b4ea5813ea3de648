package entity

import "time"

// SupplierStatus estado del proveedor.
type SupplierStatus string

const (
	SupplierActive   SupplierStatus = "active"
	SupplierInactive SupplierStatus = "inactive"
)

// Supplier referencia mínima a un proveedor: identificador y tiempo de entrega.
type Supplier struct {
	ID           string
	Name         string
	LeadTimeDays int
	Status       SupplierStatus
	CreatedAt    time.Time
}
