package inventory

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-engine/internal/domain"
)

// RetryOnConflict repite fn mientras falle con domain.ErrConflict, hasta attempts intentos
// en total. Cualquier otro error se devuelve de inmediato. Es la política del llamador;
// el procesador nunca reintenta por su cuenta.
func RetryOnConflict[T any](ctx context.Context, attempts int, fn func(ctx context.Context) (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}
	var (
		out T
		err error
	)
	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		out, err = fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return out, err
		}
	}
	return out, err
}
