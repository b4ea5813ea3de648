package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación de SupplierRepository sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO suppliers (id, name, lead_time_days, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Name, s.LeadTimeDays, string(s.Status), s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: proveedor %s ya existe", domain.ErrValidation, s.ID)
		}
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

func (r *SupplierRepo) Get(ctx context.Context, id string) (*entity.Supplier, error) {
	var (
		s      entity.Supplier
		status string
	)
	err := r.q.QueryRow(ctx,
		`SELECT id, name, lead_time_days, status, created_at FROM suppliers WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.LeadTimeDays, &status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: proveedor %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	s.Status = entity.SupplierStatus(status)
	return &s, nil
}
