package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := domain.NewDocument(sessionID)
		doc.ProjectName = "Robot"
		a, err := domain.Boolean(domain.BooleanUnion)
		require.NoError(t, err)
		b := domain.Smooth()
		doc.History.Past = []domain.Action{a}
		doc.History.Future = []domain.Action{b}

		require.NoError(t, store.Save(ctx, sessionID, doc), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "Robot", loaded.ProjectName)
		require.Len(t, loaded.History.Past, 1)
		require.Len(t, loaded.History.Future, 1)
		assert.Equal(t, a.ID, loaded.History.Past[0].ID)
		assert.Equal(t, b.ID, loaded.History.Future[0].ID)

		var p domain.BooleanParams
		require.NoError(t, domain.DecodeParams(loaded.History.Past[0], &p))
		assert.Equal(t, domain.BooleanUnion, p.Mode)
	})

	t.Run("Load is isolated from caller mutations", func(t *testing.T) {
		doc := domain.NewDocument(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, doc))

		doc.ProjectName = "mutated after save"
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultProjectName, loaded.ProjectName)

		loaded.History.Past = append(loaded.History.Past, domain.Smooth())
		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, again.History.Past)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewDocument(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewDocument(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewDocument(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
