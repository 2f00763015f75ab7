package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/repository"
)

var (
	ErrVendorEmailExists = repository.ErrVendorEmailExists
	ErrVendorNotFound    = repository.ErrVendorNotFound
	ErrWrongPassword     = errors.New("wrong password")
	ErrVendorInactive    = errors.New("vendor account is deactivated")
)

type AuthVendorRepository interface {
	Create(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
	FindByEmail(ctx context.Context, email string) (domain.Vendor, error)
}

type AuthService struct {
	repo AuthVendorRepository
}

func NewAuthService(repo AuthVendorRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

func (s *AuthService) Signup(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(vendor.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Vendor{}, err
	}
	vendor.Password = string(hash)
	if vendor.Role == "" {
		vendor.Role = domain.RoleVendor
	}
	vendor.Active = true

	created, err := s.repo.Create(ctx, vendor)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// EnsureAdmin creates the administrator account on first boot. An existing
// account with the configured email is left untouched, so rotating the
// password in config does not overwrite a live credential.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrVendorNotFound) {
		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if _, err := s.Signup(ctx, domain.Vendor{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("s.Signup -> %w", err)
	}

	zap.L().Info("created admin account", zap.String("email", email))
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Vendor, error) {
	vendor, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrVendorNotFound) {
			return domain.Vendor{}, ErrVendorNotFound
		}

		return domain.Vendor{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(vendor.Password), []byte(password)); err != nil {
		return domain.Vendor{}, ErrWrongPassword
	}

	if !vendor.Active {
		return domain.Vendor{}, ErrVendorInactive
	}

	return vendor, nil
}
