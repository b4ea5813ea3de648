package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición a partir de los registros en
// low_stock y out_of_stock. Los descontinuados nunca aparecen.
type ReplenishmentUseCase struct {
	records repository.StockRecordRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(records repository.StockRecordRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{records: records}
}

// GenerateReplenishmentList devuelve los ítems a reponer con la cantidad sugerida
// (hasta MaxStock, mínimo 1) y su costo estimado, ordenados por déficit descendente.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	suggestions := []dto.ReplenishmentSuggestionDTO{}
	for _, status := range []entity.StockStatus{entity.StatusOutOfStock, entity.StatusLowStock} {
		for rec, err := range scanRecords(ctx, uc.records, entity.StockRecordFilter{Status: status}) {
			if err != nil {
				return nil, err
			}
			qty := max(1, rec.MaxStock-rec.CurrentStock)
			suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
				ItemID:        rec.ItemID,
				SKU:           rec.SKU,
				Name:          rec.Name,
				Status:        string(rec.Status),
				CurrentStock:  rec.CurrentStock,
				MinStock:      rec.MinStock,
				MaxStock:      rec.MaxStock,
				Deficit:       rec.MinStock - rec.CurrentStock,
				SuggestedQty:  qty,
				UnitCost:      rec.CostPrice,
				EstimatedCost: rec.CostPrice.Mul(decimal.NewFromInt(qty)),
			})
		}
	}

	// Mayor déficit primero; desempate por SKU para un orden estable.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Deficit != b.Deficit {
			return a.Deficit > b.Deficit
		}
		return a.SKU < b.SKU
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
