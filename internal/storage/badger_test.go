package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namesmith/internal/domain"
)

// setupTestDB creates a temporary BadgerDB instance for testing.
// It returns the repository instance and a cleanup function.
func setupTestDB(t *testing.T) (*BadgerRepository, func()) {
	t.Helper()

	testLogger := logrus.New()
	testLogger.SetOutput(os.Stderr)
	testLogger.SetLevel(logrus.ErrorLevel)

	repo, err := NewBadgerRepository(t.TempDir(), testLogger)
	require.NoError(t, err, "Failed to create test BadgerDB repository")

	cleanup := func() {
		err := repo.Close()
		assert.NoError(t, err, "Failed to close test BadgerDB repository")
	}
	return repo, cleanup
}

func sampleState() domain.State {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return domain.State{}.WithBatch([]domain.Candidate{
		{
			ID:        "a1",
			Name:      "CloudFlow",
			Category:  "Tech",
			CreatedAt: created,
			Domains:   domain.DomainMap{".com": domain.StatusAvailable, ".io": domain.StatusAvailable},
		},
		{
			ID:         "b2",
			Name:       "DataSync",
			Category:   "Tech",
			CreatedAt:  created.Add(time.Minute),
			IsFavorite: true,
			Rating:     4,
			Domains:    domain.DomainMap{".com": domain.StatusTaken},
		},
	})
}

// TestBadgerRepository_SaveAndLoadState tests saving and retrieving state.
func TestBadgerRepository_SaveAndLoadState(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user1, user2 := int64(123), int64(456)

	state := sampleState()
	state, err := state.Archive("a1")
	require.NoError(t, err)
	state = state.SetDarkMode(true)

	require.NoError(t, repo.SaveState(ctx, user1, state), "Failed to save state")

	loaded, err := repo.LoadState(ctx, user1)
	require.NoError(t, err, "Failed to load state")
	require.Len(t, loaded.GeneratedNames, 1)
	require.Len(t, loaded.ArchivedNames, 1)
	assert.Equal(t, "b2", loaded.GeneratedNames[0].ID)
	assert.Equal(t, "a1", loaded.ArchivedNames[0].ID)
	assert.True(t, loaded.DarkMode)
	assert.Equal(t, []string{"b2"}, loaded.Favorites)
	assert.Equal(t, 4, loaded.GeneratedNames[0].Rating)
	assert.True(t, state.GeneratedNames[0].CreatedAt.Equal(loaded.GeneratedNames[0].CreatedAt))

	// --- Other users are isolated ---
	empty, err := repo.LoadState(ctx, user2)
	require.NoError(t, err, "Loading state for an unknown user should not error")
	assert.Empty(t, empty.GeneratedNames)
	assert.Empty(t, empty.ArchivedNames)

	// --- Saving overwrites ---
	require.NoError(t, repo.SaveState(ctx, user1, domain.State{}))
	loaded, err = repo.LoadState(ctx, user1)
	require.NoError(t, err)
	assert.Empty(t, loaded.GeneratedNames)
}

// TestBadgerRepository_DeleteState tests deleting state.
func TestBadgerRepository_DeleteState(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(789)

	require.NoError(t, repo.SaveState(ctx, userID, sampleState()))
	require.NoError(t, repo.DeleteState(ctx, userID), "Failed to delete state")

	loaded, err := repo.LoadState(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, loaded.GeneratedNames)

	assert.NoError(t, repo.DeleteState(ctx, userID), "Deleting a missing state should not return an error")
}

// TestBadgerRepository_CorruptStateIsDiscarded writes garbage under a user's
// key and expects an empty state back.
func TestBadgerRepository_CorruptStateIsDiscarded(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(42)

	err := repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set(generateStateKey(userID), []byte("{not json"))
	})
	require.NoError(t, err)

	loaded, err := repo.LoadState(ctx, userID)
	require.NoError(t, err, "Corrupt state must not surface as an error")
	assert.Empty(t, loaded.GeneratedNames)
	assert.Empty(t, loaded.ArchivedNames)
}

// TestBadgerRepository_LegacyRecordWithoutIDs loads an id-less legacy record
// repeatedly and expects the same ids each time, so lifecycle commands work
// before anything writes the record back.
func TestBadgerRepository_LegacyRecordWithoutIDs(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(314)

	err := repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set(generateStateKey(userID), []byte(`{"generatedNames":[{"name":"CloudFlow","domainStatus":"taken"}]}`))
	})
	require.NoError(t, err)

	first, err := repo.LoadState(ctx, userID)
	require.NoError(t, err)
	require.Len(t, first.GeneratedNames, 1)
	assert.Equal(t, domain.StatusTaken, first.GeneratedNames[0].Domains[".com"])

	second, err := repo.LoadState(ctx, userID)
	require.NoError(t, err)

	id, err := second.Resolve(first.GeneratedNames[0].ID)
	require.NoError(t, err, "id from the first load must resolve against the second")

	next, err := second.ToggleFavorite(id)
	require.NoError(t, err)
	require.NoError(t, repo.SaveState(ctx, userID, next))

	third, err := repo.LoadState(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.GeneratedNames[0].ID}, third.Favorites)
}

func TestBadgerRepository_RunGCStopsOnCancel(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		repo.RunGC(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunGC did not stop after cancellation")
	}
}
