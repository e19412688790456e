package services

import (
	"context"
	"errors"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/repository"
)

type SettlementRepository interface {
	Create(ctx context.Context, s *model.Settlement) (*model.Settlement, error)
	GetByID(ctx context.Context, id int64) (*model.Settlement, error)
	Update(ctx context.Context, id int64, p model.SettlementUpdateRequest) (*model.Settlement, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.SettlementFilter) ([]*model.Settlement, int64, error)
}

type ContainerTypeRepository interface {
	Create(ctx context.Context, ct *model.ContainerType) (*model.ContainerType, error)
	GetByID(ctx context.Context, id int64) (*model.ContainerType, error)
	Update(ctx context.Context, id int64, p model.ContainerTypeUpdateRequest) (*model.ContainerType, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*model.ContainerType, int64, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role, limit, offset int) ([]*model.User, int64, error)
}

// MasterDataService owns administrator-managed reference data: settlements,
// container types and the user directory.
type MasterDataService struct {
	settlementRepo SettlementRepository
	containerRepo  ContainerTypeRepository
	userRepo       UserReader
}

func NewMasterDataService(settlementRepo SettlementRepository, containerRepo ContainerTypeRepository, userRepo UserReader) *MasterDataService {
	return &MasterDataService{
		settlementRepo: settlementRepo,
		containerRepo:  containerRepo,
		userRepo:       userRepo,
	}
}

func (s *MasterDataService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *MasterDataService) ListUsers(ctx context.Context, role model.Role, limit, offset int) ([]*model.User, int64, error) {
	return s.userRepo.ListByRole(ctx, role, limit, offset)
}

func (s *MasterDataService) CreateSettlement(ctx context.Context, p model.SettlementCreateRequest) (*model.Settlement, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.settlementRepo.Create(ctx, &model.Settlement{
		Name:         p.Name,
		ContactName:  p.ContactName,
		ContactPhone: p.ContactPhone,
	})
}

func (s *MasterDataService) GetSettlement(ctx context.Context, id int64) (*model.Settlement, error) {
	settlement, err := s.settlementRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return settlement, nil
}

func (s *MasterDataService) UpdateSettlement(ctx context.Context, id int64, p model.SettlementUpdateRequest) (*model.Settlement, error) {
	settlement, err := s.settlementRepo.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return settlement, nil
}

func (s *MasterDataService) DeleteSettlement(ctx context.Context, id int64) error {
	if err := s.settlementRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *MasterDataService) ListSettlements(ctx context.Context, f model.SettlementFilter) ([]*model.Settlement, int64, error) {
	return s.settlementRepo.List(ctx, f)
}

func (s *MasterDataService) CreateContainerType(ctx context.Context, p model.ContainerTypeCreateRequest) (*model.ContainerType, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.containerRepo.Create(ctx, &model.ContainerType{
		Name: p.Name,
		Size: p.Size,
		Unit: p.Unit,
	})
}

func (s *MasterDataService) GetContainerType(ctx context.Context, id int64) (*model.ContainerType, error) {
	ct, err := s.containerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ct, nil
}

func (s *MasterDataService) UpdateContainerType(ctx context.Context, id int64, p model.ContainerTypeUpdateRequest) (*model.ContainerType, error) {
	if p.Size != nil && *p.Size <= 0 {
		return nil, errors.New("size must be greater than zero")
	}

	ct, err := s.containerRepo.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ct, nil
}

func (s *MasterDataService) DeleteContainerType(ctx context.Context, id int64) error {
	if err := s.containerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *MasterDataService) ListContainerTypes(ctx context.Context, limit, offset int) ([]*model.ContainerType, int64, error) {
	return s.containerRepo.List(ctx, limit, offset)
}
