package repository

import (
	"context"
	"errors"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateActivePricing is returned when creating or activating a
	// pricing rule would leave two active rows for the same
	// settlement/container pair. The partial unique index on
	// settlement_tank_pricing backs this check, so a lost race surfaces here
	// too instead of silently violating the invariant.
	ErrDuplicateActivePricing = errors.New("an active pricing rule already exists for this settlement and container type")
)

type PricingRepository struct {
	*pg.DB
}

func NewPricingRepository(db *pg.DB) *PricingRepository {
	return &PricingRepository{
		db,
	}
}

// Create inserts a pricing rule. When the row is requested active, the
// pre-check and insert run in one transaction; the unique index catches
// whatever the pre-check races with.
func (r *PricingRepository) Create(ctx context.Context, p *model.Pricing) (*model.Pricing, error) {
	entity := toPricingEntity(p)

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if entity.IsActive {
			var count int64
			err := r.Write(ctx).WithContext(ctx).Model(&PricingEntity{}).
				Where("settlement_id = ? AND container_type_id = ? AND is_active = ?", entity.SettlementID, entity.ContainerTypeID, true).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicateActivePricing
			}
		}
		return r.Write(ctx).WithContext(ctx).Create(entity).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateActivePricing
		}
		return nil, err
	}

	return toPricingModel(entity), nil
}

func (r *PricingRepository) GetByID(ctx context.Context, id int64) (*model.Pricing, error) {
	var entity PricingEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toPricingModel(&entity), nil
}

// FindActive returns the active pricing rows for a pair, most recent first.
// It fetches up to two rows so the caller can detect a duplicate-active
// integrity violation instead of having it silently masked by LIMIT 1.
func (r *PricingRepository) FindActive(ctx context.Context, settlementID, containerTypeID int64) ([]*model.Pricing, error) {
	var entities []*PricingEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("settlement_id = ? AND container_type_id = ? AND is_active = ?", settlementID, containerTypeID, true).
		Order("created_at DESC, id DESC").
		Limit(2).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toPricingModels(entities), nil
}

// Activate makes the target rule the single active one for its pair,
// deactivating any currently active sibling in the same transaction.
func (r *PricingRepository) Activate(ctx context.Context, id int64) (*model.Pricing, error) {
	var entity PricingEntity

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if entity.IsActive {
			return nil
		}

		err := r.Write(ctx).WithContext(ctx).Model(&PricingEntity{}).
			Where("settlement_id = ? AND container_type_id = ? AND is_active = ?", entity.SettlementID, entity.ContainerTypeID, true).
			Update("is_active", false).Error
		if err != nil {
			return err
		}

		result := r.Write(ctx).WithContext(ctx).Model(&PricingEntity{}).
			Where("id = ?", id).
			Update("is_active", true)
		if result.Error != nil {
			return result.Error
		}
		entity.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *PricingRepository) Deactivate(ctx context.Context, id int64) (*model.Pricing, error) {
	result := r.Write(ctx).WithContext(ctx).Model(&PricingEntity{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PricingRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).Where("id = ?", id).Delete(&PricingEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PricingRepository) List(ctx context.Context, f model.PricingFilter) ([]*model.Pricing, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&PricingEntity{})

	if f.SettlementID != nil {
		q = q.Where("settlement_id = ?", *f.SettlementID)
	}
	if f.ContainerTypeID != nil {
		q = q.Where("container_type_id = ?", *f.ContainerTypeID)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*PricingEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toPricingModels(entities), total, nil
}
