package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

type VendorAdminRepository interface {
	List(ctx context.Context) ([]domain.Vendor, error)
	FindByID(ctx context.Context, id uint) (domain.Vendor, error)
	Update(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
	Delete(ctx context.Context, id uint) error
}

// VendorService is the admin view over vendor accounts. Signup and login live
// on AuthService; this one renames, deactivates and removes accounts.
type VendorService struct {
	repo VendorAdminRepository
}

func NewVendorService(repo VendorAdminRepository) *VendorService {
	return &VendorService{
		repo: repo,
	}
}

func (s *VendorService) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	vendors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return vendors, nil
}

// UpdateVendor renames and/or (de)activates an account. Deactivation takes
// effect at the vendor's next login; an issued token stays valid until expiry.
func (s *VendorService) UpdateVendor(ctx context.Context, id uint, name string, active bool) (domain.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if name != "" {
		vendor.Name = name
	}
	vendor.Active = active

	updated, err := s.repo.Update(ctx, vendor)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *VendorService) DeleteVendor(ctx context.Context, id uint) error {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	zap.L().Info("deleted vendor account",
		zap.Uint("vendor_id", id), zap.String("email", vendor.Email))
	return nil
}
