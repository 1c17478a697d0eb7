package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/atelier/pkg/adapters/memory"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewMaskingMiddleware(middleware.DefaultMaskPatterns)(underlying)
	ctx := context.Background()

	doc := domain.NewDocument("mask")
	doc.AIParams.Prompt = "my secret idea"
	doc.History.Past = []domain.Action{
		domain.NewAction(domain.ActionGenerationComplete, map[string]any{
			"source": "text",
			"prompt": "my secret idea",
			"nested": map[string]any{"userPrompt": "x", "seed": 42},
		}),
	}

	require.NoError(t, store.Save(ctx, "mask", doc))

	stored, err := underlying.Load(ctx, "mask")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.AIParams.Prompt)

	meta := stored.History.Past[0].Metadata
	assert.Equal(t, middleware.Mask, meta["prompt"])
	assert.Equal(t, "text", meta["source"])
	nested := meta["nested"].(map[string]any)
	assert.Equal(t, middleware.Mask, nested["userPrompt"])
	assert.Equal(t, 42, nested["seed"])

	// The caller's document is untouched.
	assert.Equal(t, "my secret idea", doc.AIParams.Prompt)
	assert.Equal(t, "my secret idea", doc.History.Past[0].Metadata["prompt"])
}

func TestChain_OrderIsOutermostFirst(t *testing.T) {
	underlying := memory.NewStore()
	key := make([]byte, 32)
	store := middleware.Chain(underlying,
		middleware.NewMaskingMiddleware(middleware.DefaultMaskPatterns),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	ctx := context.Background()

	doc := domain.NewDocument("c")
	doc.AIParams.Prompt = "hidden"
	require.NoError(t, store.Save(ctx, "c", doc))

	raw, err := underlying.Load(ctx, "c")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.AIParams.Prompt, "masking runs before sealing")
}
