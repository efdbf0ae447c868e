package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationKeepsExistingID(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), "  req-1 ")
	ctx, id := EnsureCorrelation(ctx)
	require.Equal(t, "req-1", id)
	require.Equal(t, "req-1", CorrelationIDFromContext(ctx))
}

func TestEnsureCorrelationGeneratesID(t *testing.T) {
	ctx, id := EnsureCorrelation(context.Background())
	require.NotEmpty(t, id)
	require.Equal(t, id, CorrelationIDFromContext(ctx))
	require.Empty(t, CorrelationIDFromContext(nil))
}
