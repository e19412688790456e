package repository

import (
	"context"
	"testing"
	"time"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricingRepository(db.DB)
	ctx := context.Background()

	t.Run("create active pricing", func(t *testing.T) {
		p := &model.Pricing{
			SettlementID:    1,
			ContainerTypeID: 1,
			Price:           decimal.NewFromInt(500),
			Currency:        "ILS",
			IsActive:        true,
		}

		created, err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.True(t, created.IsActive)
		assert.True(t, created.Price.Equal(decimal.NewFromInt(500)))
	})

	t.Run("second active pricing for same pair is rejected", func(t *testing.T) {
		p := &model.Pricing{
			SettlementID:    1,
			ContainerTypeID: 1,
			Price:           decimal.NewFromInt(600),
			Currency:        "ILS",
			IsActive:        true,
		}

		_, err := repo.Create(ctx, p)
		assert.ErrorIs(t, err, ErrDuplicateActivePricing)
	})

	t.Run("inactive pricing for same pair is allowed", func(t *testing.T) {
		p := &model.Pricing{
			SettlementID:    1,
			ContainerTypeID: 1,
			Price:           decimal.NewFromInt(600),
			Currency:        "ILS",
			IsActive:        false,
		}

		created, err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.False(t, created.IsActive)
	})

	t.Run("active pricing for another pair is allowed", func(t *testing.T) {
		p := &model.Pricing{
			SettlementID:    1,
			ContainerTypeID: 2,
			Price:           decimal.NewFromInt(900),
			Currency:        "ILS",
			IsActive:        true,
		}

		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	})
}

func TestPricingRepository_FindActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricingRepository(db.DB)
	ctx := context.Background()

	t.Run("no active rows", func(t *testing.T) {
		rows, err := repo.FindActive(ctx, 42, 42)
		require.NoError(t, err)
		assert.Len(t, rows, 0)
	})

	t.Run("single active row", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.Pricing{
			SettlementID:    10,
			ContainerTypeID: 10,
			Price:           decimal.NewFromInt(500),
			Currency:        "ILS",
			IsActive:        true,
		})
		require.NoError(t, err)

		rows, err := repo.FindActive(ctx, 10, 10)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, created.ID, rows[0].ID)
	})

	t.Run("duplicate active rows surface most recent first", func(t *testing.T) {
		// Insert directly to bypass the uniqueness guard, simulating the
		// integrity violation the resolver must tolerate.
		older := &PricingEntity{
			SettlementID:    20,
			ContainerTypeID: 20,
			Price:           decimal.NewFromInt(400),
			Currency:        "ILS",
			IsActive:        true,
			CreatedAt:       time.Now().Add(-time.Hour),
		}
		require.NoError(t, db.rawDB.Create(older).Error)

		newer := &PricingEntity{
			SettlementID:    20,
			ContainerTypeID: 20,
			Price:           decimal.NewFromInt(450),
			Currency:        "ILS",
			IsActive:        true,
			CreatedAt:       time.Now(),
		}
		require.NoError(t, db.rawDB.Create(newer).Error)

		rows, err := repo.FindActive(ctx, 20, 20)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, newer.ID, rows[0].ID)
		assert.Equal(t, older.ID, rows[1].ID)
	})
}

func TestPricingRepository_Activate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricingRepository(db.DB)
	ctx := context.Background()

	current, err := repo.Create(ctx, &model.Pricing{
		SettlementID:    1,
		ContainerTypeID: 1,
		Price:           decimal.NewFromInt(500),
		Currency:        "ILS",
		IsActive:        true,
	})
	require.NoError(t, err)

	replacement, err := repo.Create(ctx, &model.Pricing{
		SettlementID:    1,
		ContainerTypeID: 1,
		Price:           decimal.NewFromInt(550),
		Currency:        "ILS",
		IsActive:        false,
	})
	require.NoError(t, err)

	t.Run("activation supersedes the current active row", func(t *testing.T) {
		activated, err := repo.Activate(ctx, replacement.ID)
		require.NoError(t, err)
		assert.True(t, activated.IsActive)

		prior, err := repo.GetByID(ctx, current.ID)
		require.NoError(t, err)
		assert.False(t, prior.IsActive)

		rows, err := repo.FindActive(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, replacement.ID, rows[0].ID)
	})

	t.Run("activating an active row is a no-op", func(t *testing.T) {
		activated, err := repo.Activate(ctx, replacement.ID)
		require.NoError(t, err)
		assert.True(t, activated.IsActive)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Activate(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPricingRepository_Deactivate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricingRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Pricing{
		SettlementID:    1,
		ContainerTypeID: 1,
		Price:           decimal.NewFromInt(500),
		Currency:        "ILS",
		IsActive:        true,
	})
	require.NoError(t, err)

	deactivated, err := repo.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	rows, err := repo.FindActive(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 0)
}

func TestPricingRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricingRepository(db.DB)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &model.Pricing{
			SettlementID:    int64(i + 1),
			ContainerTypeID: 1,
			Price:           decimal.NewFromInt(int64(100 * (i + 1))),
			Currency:        "ILS",
			IsActive:        true,
		})
		require.NoError(t, err)
	}

	t.Run("filter by settlement", func(t *testing.T) {
		settlementID := int64(2)
		rows, total, err := repo.List(ctx, model.PricingFilter{SettlementID: &settlementID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, settlementID, rows[0].SettlementID)
	})

	t.Run("filter by active", func(t *testing.T) {
		active := true
		_, total, err := repo.List(ctx, model.PricingFilter{IsActive: &active})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}
