package repository

import (
	"context"
	"testing"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettlementRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Settlement{
		Name:         "Kfar Saba",
		ContactName:  "Noa Levi",
		ContactPhone: "+972501234567",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Kfar Saba", got.Name)

		_, err = repo.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		phone := "+972509999999"
		got, err := repo.Update(ctx, created.ID, model.SettlementUpdateRequest{ContactPhone: &phone})
		require.NoError(t, err)
		assert.Equal(t, phone, got.ContactPhone)
		assert.Equal(t, "Kfar Saba", got.Name)

		_, err = repo.Update(ctx, 9999, model.SettlementUpdateRequest{ContactPhone: &phone})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list with name filter", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Settlement{Name: "Raanana"})
		require.NoError(t, err)

		name := "Saba"
		rows, total, err := repo.List(ctx, model.SettlementFilter{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Kfar Saba", rows[0].Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created.ID))
		_, err := repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
	})
}

func TestContainerTypeRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContainerTypeRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.ContainerType{
		Name: "10m3 tank",
		Size: 10,
		Unit: "m3",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(10), got.Size)
	})

	t.Run("update size", func(t *testing.T) {
		size := 12.5
		got, err := repo.Update(ctx, created.ID, model.ContainerTypeUpdateRequest{Size: &size})
		require.NoError(t, err)
		assert.Equal(t, size, got.Size)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.ContainerType{Name: "5m3 tank", Size: 5, Unit: "m3"})
		require.NoError(t, err)

		rows, total, err := repo.List(ctx, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, rows, 2)
		assert.Equal(t, "10m3 tank", rows[0].Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created.ID))
		_, err := repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
