package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

func TestVendorService(t *testing.T) {
	ctx := context.Background()

	seed := func() (*VendorService, *mockVendorRepo, domain.Vendor) {
		repo := newMockVendorRepo()
		vendor, err := repo.Create(ctx, domain.Vendor{
			Name: "Ana", Email: "ana@example.com", Role: domain.RoleVendor, Active: true,
		})
		require.NoError(t, err)
		return NewVendorService(repo), repo, vendor
	}

	t.Run("lists accounts", func(t *testing.T) {
		svc, _, _ := seed()
		vendors, err := svc.ListVendors(ctx)
		require.NoError(t, err)
		assert.Len(t, vendors, 1)
	})

	t.Run("renames and deactivates", func(t *testing.T) {
		svc, repo, vendor := seed()
		updated, err := svc.UpdateVendor(ctx, vendor.ID, "Ana Maria", false)
		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", updated.Name)
		assert.False(t, updated.Active)
		assert.False(t, repo.vendors["ana@example.com"].Active)
	})

	t.Run("empty name keeps the current one", func(t *testing.T) {
		svc, _, vendor := seed()
		updated, err := svc.UpdateVendor(ctx, vendor.ID, "", true)
		require.NoError(t, err)
		assert.Equal(t, "Ana", updated.Name)
	})

	t.Run("deactivated account can no longer log in", func(t *testing.T) {
		repo := newMockVendorRepo()
		auth := NewAuthService(repo)
		created, err := auth.Signup(ctx, domain.Vendor{
			Name: "Ana", Email: "ana@example.com", Password: "secret1234",
		})
		require.NoError(t, err)

		svc := NewVendorService(repo)
		_, err = svc.UpdateVendor(ctx, created.ID, "", false)
		require.NoError(t, err)

		_, err = auth.Login(ctx, "ana@example.com", "secret1234")
		assert.ErrorIs(t, err, ErrVendorInactive)
	})

	t.Run("deletes an account", func(t *testing.T) {
		svc, repo, vendor := seed()
		require.NoError(t, svc.DeleteVendor(ctx, vendor.ID))
		assert.Empty(t, repo.vendors)
	})

	t.Run("unknown vendor id", func(t *testing.T) {
		svc, _, _ := seed()
		_, err := svc.UpdateVendor(ctx, 99, "Nobody", true)
		assert.ErrorIs(t, err, ErrVendorNotFound)
		assert.ErrorIs(t, svc.DeleteVendor(ctx, 99), ErrVendorNotFound)
	})
}
