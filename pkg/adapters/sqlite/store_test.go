package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/atelier/pkg/adapters/sqlite"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ports.RunDocumentStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelier.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)

	doc := domain.NewDocument("robot")
	doc.History.Past = []domain.Action{domain.Smooth()}
	require.NoError(t, store.Save(ctx, "robot", doc))

	doc.ProjectName = "Robot v2"
	require.NoError(t, store.Save(ctx, "robot", doc), "second save is an upsert")
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "robot")
	require.NoError(t, err)
	assert.Equal(t, "Robot v2", loaded.ProjectName)
	require.Len(t, loaded.History.Past, 1)
	assert.Equal(t, domain.ActionSmooth, loaded.History.Past[0].Kind)

	ids, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"robot"}, ids)
}
