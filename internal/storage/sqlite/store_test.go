package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentspend/internal/core"
	"studentspend/internal/storage"
	"studentspend/internal/storage/storagetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return openTemp(t) })
}

func TestOpenTwiceKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.ReplaceStudents(context.Background(), storagetest.Roster())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err, "migrations are idempotent")
	defer s.Close()

	got, err := s.FindStudent(context.Background(), "11111111")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.Name)
}

func TestReplaceStudentsRollsBackOnDuplicate(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.ReplaceStudents(ctx, storagetest.Roster())
	require.NoError(t, err)

	_, err = s.ReplaceStudents(ctx, []core.Student{
		core.NewStudent("44444444", "Dana"),
		core.NewStudent("44444444", "Dana again"),
	})
	require.Error(t, err)

	_, err = s.FindStudent(ctx, "11111111")
	assert.NoError(t, err, "previous roster survives a failed import")
}
