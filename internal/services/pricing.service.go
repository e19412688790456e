package services

import (
	"context"
	"errors"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/repository"
	"github.com/greenwaste/collection-gateway/pkg/logger"
	"github.com/greenwaste/collection-gateway/pkg/prom"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("error notfound")
	ErrPricingNotFound        = errors.New("no active pricing for settlement and container type")
	ErrDuplicateActivePricing = errors.New("an active pricing already exists for this settlement and container type")
	ErrInvalidVolume          = errors.New("volume must be greater than zero")

	// ErrPricingAmbiguous marks a unique-expected pricing lookup that matched
	// more than one row. Active-rule resolution never returns it: duplicate
	// active rows resolve to the newest row instead.
	ErrPricingAmbiguous = errors.New("pricing lookup matched more than one row")
)

type PricingRepository interface {
	Create(ctx context.Context, p *model.Pricing) (*model.Pricing, error)
	GetByID(ctx context.Context, id int64) (*model.Pricing, error)
	FindActive(ctx context.Context, settlementID, containerTypeID int64) ([]*model.Pricing, error)
	Activate(ctx context.Context, id int64) (*model.Pricing, error)
	Deactivate(ctx context.Context, id int64) (*model.Pricing, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.PricingFilter) ([]*model.Pricing, int64, error)
}

type ContainerTypeReader interface {
	GetByID(ctx context.Context, id int64) (*model.ContainerType, error)
}

type PricingService struct {
	pricingRepo   PricingRepository
	containerRepo ContainerTypeReader
}

func NewPricingService(pricingRepo PricingRepository, containerRepo ContainerTypeReader) *PricingService {
	return &PricingService{
		pricingRepo:   pricingRepo,
		containerRepo: containerRepo,
	}
}

// ResolveActive returns the active pricing rule for a settlement/container
// pair along with the derived per-cubic-meter rate.
//
// The uniqueness of the active rule is enforced at write time, but the
// resolver still tolerates duplicates: if the store holds more than one
// active row for the pair, the most recently created one wins and the
// violation is reported instead of failing the pickup flow.
func (s *PricingService) ResolveActive(ctx context.Context, settlementID, containerTypeID int64) (*model.ActivePrice, error) {
	rows, err := s.pricingRepo.FindActive(ctx, settlementID, containerTypeID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrPricingNotFound
	}

	pricing := rows[0]
	if len(rows) > 1 {
		logger.Warn("pricing: multiple active rules for pair, using most recent",
			"settlement_id", settlementID,
			"container_type_id", containerTypeID,
			"chosen_pricing_id", pricing.ID)
		prom.IncrementCounter(prom.SystemPricing, prom.MetricPricingDuplicateActive)
	}

	containerType, err := s.containerRepo.GetByID(ctx, pricing.ContainerTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.ActivePrice{
		Pricing:       pricing,
		ContainerType: containerType,
		UnitPrice:     unitPrice(pricing.Price, containerType.Size),
	}, nil
}

// Quote computes the charge for a pickup: the per-cubic-meter rate times the
// collected volume, rounded to 2 decimal places half away from zero.
func (s *PricingService) Quote(ctx context.Context, settlementID, containerTypeID int64, volume float64) (*model.PriceQuote, error) {
	if volume <= 0 {
		return nil, ErrInvalidVolume
	}

	active, err := s.ResolveActive(ctx, settlementID, containerTypeID)
	if err != nil {
		return nil, err
	}

	total := active.UnitPrice.Mul(decimal.NewFromFloat(volume)).Round(2)

	return &model.PriceQuote{
		UnitPrice:  active.UnitPrice,
		TotalPrice: total,
		Currency:   active.Pricing.Currency,
		PricingID:  active.Pricing.ID,
	}, nil
}

// unitPrice is the price of one cubic meter: container price over container
// capacity. Kept at full precision so the total rounds once, at the end.
func unitPrice(price decimal.Decimal, size float64) decimal.Decimal {
	return price.Div(decimal.NewFromFloat(size))
}

// Create registers a new pricing rule. Creating a rule as active while the
// pair already has one is a conflict: the caller must use Activate, which
// supersedes the current rule atomically.
func (s *PricingService) Create(ctx context.Context, p model.PricingCreateRequest) (*model.Pricing, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.containerRepo.GetByID(ctx, p.ContainerTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	created, err := s.pricingRepo.Create(ctx, &model.Pricing{
		SettlementID:    p.SettlementID,
		ContainerTypeID: p.ContainerTypeID,
		Price:           p.Price,
		Currency:        p.Currency,
		IsActive:        p.IsActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActivePricing) {
			return nil, ErrDuplicateActivePricing
		}
		return nil, err
	}
	return created, nil
}

func (s *PricingService) Get(ctx context.Context, id int64) (*model.Pricing, error) {
	p, err := s.pricingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Activate makes a rule the active one for its pair, deactivating the
// current active rule in the same transaction.
func (s *PricingService) Activate(ctx context.Context, id int64) (*model.Pricing, error) {
	p, err := s.pricingRepo.Activate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PricingService) Deactivate(ctx context.Context, id int64) (*model.Pricing, error) {
	p, err := s.pricingRepo.Deactivate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PricingService) Delete(ctx context.Context, id int64) error {
	if err := s.pricingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *PricingService) List(ctx context.Context, f model.PricingFilter) ([]*model.Pricing, int64, error) {
	return s.pricingRepo.List(ctx, f)
}
