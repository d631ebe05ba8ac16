package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// clientContextKey is the context key for the resolved client.
type clientContextKey struct{}

// ErrNoClientInContext indicates no client was found in the context.
var ErrNoClientInContext = errors.New("no client in context")

// WithClient returns a new context with the client attached.
func WithClient(ctx context.Context, c *types.Client) context.Context {
	return context.WithValue(ctx, clientContextKey{}, c)
}

// ClientFromContext extracts the client from the context.
// Returns ErrNoClientInContext if not present or nil.
func ClientFromContext(ctx context.Context) (*types.Client, error) {
	c, ok := ctx.Value(clientContextKey{}).(*types.Client)
	if !ok || c == nil {
		return nil, ErrNoClientInContext
	}
	return c, nil
}

// MustClientFromContext extracts the client or panics.
// Use only when ClientScope guarantees client presence.
func MustClientFromContext(ctx context.Context) *types.Client {
	c, err := ClientFromContext(ctx)
	if err != nil {
		panic("client not in context: middleware misconfiguration")
	}
	return c
}

// ClientScope resolves the {clientID} URL parameter to a stored client.
// Malformed IDs are rejected with 422 and unknown clients with 404.
func (h *Handler) ClientScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "clientID")
		if vErr := validation.ValidateULID("client_id", id); vErr != nil {
			MapError(w, r, vErr.Err())
			return
		}

		c, err := h.store.GetClient(r.Context(), id)
		if err != nil {
			MapError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), c)))
	})
}
