package api

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperengineering/snsreport/internal/types"
)

func TestWithClient_ClientFromContext_RoundTrip(t *testing.T) {
	c := &types.Client{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Name: "Acme"}
	ctx := WithClient(context.Background(), c)

	got, err := ClientFromContext(ctx)
	if err != nil {
		t.Fatalf("ClientFromContext() error = %v", err)
	}
	if got != c {
		t.Errorf("ClientFromContext() = %+v, want %+v", got, c)
	}
}

func TestClientFromContext_Missing(t *testing.T) {
	if _, err := ClientFromContext(context.Background()); !errors.Is(err, ErrNoClientInContext) {
		t.Errorf("error = %v, want ErrNoClientInContext", err)
	}

	ctx := WithClient(context.Background(), nil)
	if _, err := ClientFromContext(ctx); !errors.Is(err, ErrNoClientInContext) {
		t.Errorf("nil client error = %v, want ErrNoClientInContext", err)
	}
}

func TestMustClientFromContext_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic without client in context")
		}
	}()
	MustClientFromContext(context.Background())
}
