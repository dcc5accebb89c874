package correlation

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationID_GeneratesULID(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())

	_, err := ulid.Parse(cid)
	require.NoError(t, err)
	assert.Equal(t, cid, ExtractCorrelationID(ctx))
}

func TestEnsureCorrelationID_KeepsExisting(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "warmup-2026-03")

	_, cid := EnsureCorrelationID(ctx)
	assert.Equal(t, "warmup-2026-03", cid)
}

func TestContextWithCorrelationID_IgnoresEmpty(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "")
	assert.Empty(t, ExtractCorrelationID(ctx))
}
