package repository

import (
	"context"

	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/repository/dao"
)

var (
	ErrVendorEmailExists = dao.ErrVendorEmailExists
	ErrVendorNotFound    = dao.ErrVendorNotFound
)

type VendorDAO interface {
	Insert(ctx context.Context, vendor dao.Vendor) (dao.Vendor, error)
	FindByEmail(ctx context.Context, email string) (dao.Vendor, error)
	FindByID(ctx context.Context, id uint) (dao.Vendor, error)
	List(ctx context.Context) ([]dao.Vendor, error)
	Update(ctx context.Context, vendor dao.Vendor) (dao.Vendor, error)
	Delete(ctx context.Context, id uint) error
}

type VendorRepository struct {
	dao VendorDAO
}

func NewVendorRepository(dao VendorDAO) *VendorRepository {
	return &VendorRepository{
		dao: dao,
	}
}

func (r *VendorRepository) domainToDao(v domain.Vendor) dao.Vendor {
	return dao.Vendor{
		ID:        v.ID,
		Name:      v.Name,
		Email:     v.Email,
		Password:  v.Password,
		Role:      string(v.Role),
		Active:    v.Active,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func (r *VendorRepository) daoToDomain(v dao.Vendor) domain.Vendor {
	return domain.Vendor{
		ID:        v.ID,
		Name:      v.Name,
		Email:     v.Email,
		Password:  v.Password,
		Role:      domain.VendorRole(v.Role),
		Active:    v.Active,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func (r *VendorRepository) Create(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(vendor))
	if err != nil {
		return domain.Vendor{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *VendorRepository) FindByEmail(ctx context.Context, email string) (domain.Vendor, error) {
	vendor, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.Vendor{}, err
	}

	return r.daoToDomain(vendor), nil
}

func (r *VendorRepository) FindByID(ctx context.Context, id uint) (domain.Vendor, error) {
	vendor, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Vendor{}, err
	}

	return r.daoToDomain(vendor), nil
}

func (r *VendorRepository) List(ctx context.Context) ([]domain.Vendor, error) {
	vendors, err := r.dao.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Vendor, len(vendors))
	for i, v := range vendors {
		result[i] = r.daoToDomain(v)
	}

	return result, nil
}

func (r *VendorRepository) Update(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(vendor))
	if err != nil {
		return domain.Vendor{}, err
	}

	return r.daoToDomain(updated), nil
}

func (r *VendorRepository) Delete(ctx context.Context, id uint) error {
	return r.dao.Delete(ctx, id)
}
