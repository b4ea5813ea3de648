// Package memory implementa los puertos de persistencia en memoria del proceso.
// Las escrituras de registros y órdenes son condicionales por versión, igual que en PostgreSQL.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/pkg/textnorm"
)

// Stage puntos de la confirmación donde se puede inyectar un fallo.
type Stage string

// StageAfterLedger ocurre cuando los movimientos ya están en el libro y los registros aún no.
const StageAfterLedger Stage = "after_ledger"

// Store datos compartidos por los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	records   map[string]*entity.StockRecord
	skus      map[string]string // sku → item_id
	movements map[string][]*entity.Movement
	seq       int64
	orders    map[string]*entity.PurchaseOrder
	suppliers map[string]*entity.Supplier

	// fault, si no es nil, se consulta en cada etapa del commit; un error interrumpe el commit ahí mismo.
	fault func(Stage) error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		records:   make(map[string]*entity.StockRecord),
		skus:      make(map[string]string),
		movements: make(map[string][]*entity.Movement),
		orders:    make(map[string]*entity.PurchaseOrder),
		suppliers: make(map[string]*entity.Supplier),
	}
}

// InjectFault instala un gancho de fallos para simular caídas a mitad del commit.
func (s *Store) InjectFault(fn func(Stage) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

// writeRecord aplica la escritura condicional. Requiere s.mu tomado en escritura.
func (s *Store) writeRecord(rec *entity.StockRecord, expectedVersion int64) error {
	cur, ok := s.records[rec.ItemID]
	if !ok {
		return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, rec.ItemID)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("%w: ítem %s en versión %d, se esperaba %d", domain.ErrConflict, rec.ItemID, cur.Version, expectedVersion)
	}
	if rec.SKU != cur.SKU {
		if _, taken := s.skus[rec.SKU]; taken {
			return fmt.Errorf("%w: sku %s ya existe", domain.ErrValidation, rec.SKU)
		}
		delete(s.skus, cur.SKU)
		s.skus[rec.SKU] = rec.ItemID
	}
	s.records[rec.ItemID] = rec.Clone()
	return nil
}

// appendMovement asigna secuencia y agrega. Requiere s.mu tomado en escritura.
func (s *Store) appendMovement(mov *entity.Movement) error {
	if err := s.checkMovement(mov); err != nil {
		return err
	}
	s.seq++
	mov.Sequence = s.seq
	c := *mov
	s.movements[mov.ItemID] = append(s.movements[mov.ItemID], &c)
	return nil
}

func (s *Store) checkMovement(mov *entity.Movement) error {
	if mov.Quantity == 0 {
		return fmt.Errorf("%w: un movimiento no puede tener cantidad cero", domain.ErrValidation)
	}
	if _, ok := s.records[mov.ItemID]; !ok {
		return fmt.Errorf("%w: ítem %s desconocido", domain.ErrValidation, mov.ItemID)
	}
	return nil
}

func matches(rec *entity.StockRecord, f entity.StockRecordFilter, search string) bool {
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(rec.Category, f.Category) {
		return false
	}
	if search != "" && !strings.Contains(textnorm.Fold(rec.SKU+" "+rec.Name), search) {
		return false
	}
	return true
}

// listRecords filtra y pagina por SKU. Requiere s.mu tomado en lectura.
func (s *Store) listRecords(f entity.StockRecordFilter, afterSKU string, limit int) []*entity.StockRecord {
	search := textnorm.Fold(f.Search)
	out := make([]*entity.StockRecord, 0)
	for _, rec := range s.records {
		if rec.SKU <= afterSKU || !matches(rec, f, search) {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
