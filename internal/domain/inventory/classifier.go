package inventory

import "github.com/jhoicas/stock-engine/internal/domain/entity"

// Classify deriva el estado a partir del stock actual y el umbral mínimo (función pura).
// El orden importa: discontinued es una decisión manual y nunca se sobrescribe.
func Classify(currentStock, minStock int64, existing entity.StockStatus) entity.StockStatus {
	switch {
	case existing == entity.StatusDiscontinued:
		return entity.StatusDiscontinued
	case currentStock == 0:
		return entity.StatusOutOfStock
	case currentStock <= minStock:
		return entity.StatusLowStock
	default:
		return entity.StatusInStock
	}
}
