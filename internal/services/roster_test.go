package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentspend/internal/importer"
	sheetmem "studentspend/internal/sheets/memory"
	"studentspend/internal/storage/memory"
	"studentspend/internal/storage/storagetest"
)

func TestRosterService_ImportFrom(t *testing.T) {
	ctx := context.Background()
	store := memory.New(storagetest.Roster()...)
	src := sheetmem.New([]map[string]any{
		{"Registration Number": 4521, "Name": "Divya Iyer", "email": "divya@university.edu", "Section": "B"},
		{"regNo": "87654321"},
	})

	n, err := NewRosterService(store).ImportFrom(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st, err := store.FindStudent(ctx, "00004521")
	require.NoError(t, err)
	assert.Equal(t, "Divya Iyer", st.Name)
	assert.Equal(t, "B", st.Section)
	assert.Equal(t, 5000.0, st.Budget.Amount)

	st, err = store.FindStudent(ctx, "87654321")
	require.NoError(t, err)
	assert.Equal(t, "Student 2", st.Name)
	assert.Equal(t, "student2@university.edu", st.Email)

	_, err = store.FindStudent(ctx, "11111111")
	assert.Error(t, err, "import replaces the previous roster")
}

func TestRosterService_RejectedRowKeepsDirectory(t *testing.T) {
	ctx := context.Background()
	store := memory.New(storagetest.Roster()...)

	_, err := NewRosterService(store).Import(ctx, []map[string]any{
		{"regNo": "87654321"},
		{"regNo": "87654321"},
	})
	assert.ErrorIs(t, err, importer.ErrDuplicateRegNo)

	_, err = store.FindStudent(ctx, "11111111")
	assert.NoError(t, err)
}
