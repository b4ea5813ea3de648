package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus clasificación derivada del stock actual frente a los umbrales.
type StockStatus string

const (
	StatusInStock      StockStatus = "in_stock"
	StatusLowStock     StockStatus = "low_stock"
	StatusOutOfStock   StockStatus = "out_of_stock"
	StatusDiscontinued StockStatus = "discontinued"
)

// IsValid indica si el estado pertenece al catálogo conocido.
func (s StockStatus) IsValid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock, StatusDiscontinued:
		return true
	}
	return false
}

// StockRecord contadores y clasificación de un ítem rastreado.
// Solo el procesador de transacciones lo modifica; Version se incrementa en cada escritura
// (control de concurrencia optimista).
type StockRecord struct {
	ItemID   string
	SKU      string // único, visible para humanos
	Name     string // etiqueta desnormalizada para búsqueda
	Category string

	CurrentStock   int64
	ReservedStock  int64
	AvailableStock int64
	OpeningStock   int64 // stock al momento de crear el registro (base del replay del libro)

	MinStock int64
	MaxStock int64

	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	TotalValue   decimal.Decimal // CurrentStock * CostPrice

	Status          StockStatus
	LastRestockedAt *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone devuelve una copia independiente (los punteros no se comparten).
func (r *StockRecord) Clone() *StockRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastRestockedAt != nil {
		t := *r.LastRestockedAt
		c.LastRestockedAt = &t
	}
	return &c
}

// StockRecordFilter filtro del listado de registros. Campos vacíos no filtran.
type StockRecordFilter struct {
	Status   StockStatus
	Category string
	Search   string // busca en SKU y nombre, sin distinguir mayúsculas ni tildes
}
