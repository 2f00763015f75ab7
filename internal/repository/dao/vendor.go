package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrVendorEmailExists = errors.New("vendor already exists")
	ErrVendorNotFound    = errors.New("vendor not found")
)

type Vendor struct {
	ID uint `gorm:"primaryKey"`

	Name     string `gorm:"not null"`
	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Role     string `gorm:"not null;default:vendor"` // "vendor" or "admin"
	Active   bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type VendorDAO struct {
	db *gorm.DB
}

func NewVendorDAO(db *gorm.DB) *VendorDAO {
	return &VendorDAO{
		db: db,
	}
}

func (d *VendorDAO) Insert(ctx context.Context, vendor Vendor) (Vendor, error) {
	result := d.db.WithContext(ctx).Create(&vendor)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_vendors_email"`) {
			return Vendor{}, ErrVendorEmailExists
		}

		return Vendor{}, result.Error
	}

	return vendor, nil
}

func (d *VendorDAO) FindByEmail(ctx context.Context, email string) (Vendor, error) {
	var vendor Vendor
	result := d.db.WithContext(ctx).Where("email = ?", email).First(&vendor)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Vendor{}, ErrVendorNotFound
		}
		return Vendor{}, result.Error
	}

	return vendor, nil
}

func (d *VendorDAO) FindByID(ctx context.Context, id uint) (Vendor, error) {
	var vendor Vendor
	result := d.db.WithContext(ctx).First(&vendor, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Vendor{}, ErrVendorNotFound
		}
		return Vendor{}, result.Error
	}

	return vendor, nil
}

func (d *VendorDAO) List(ctx context.Context) ([]Vendor, error) {
	var vendors []Vendor
	result := d.db.WithContext(ctx).Order("name").Find(&vendors)
	if result.Error != nil {
		return nil, result.Error
	}

	return vendors, nil
}

func (d *VendorDAO) Update(ctx context.Context, vendor Vendor) (Vendor, error) {
	result := d.db.WithContext(ctx).Model(&Vendor{}).
		Where("id = ?", vendor.ID).
		Updates(map[string]any{
			"name":   vendor.Name,
			"email":  vendor.Email,
			"active": vendor.Active,
		})
	if result.Error != nil {
		return Vendor{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Vendor{}, ErrVendorNotFound
	}

	return d.FindByID(ctx, vendor.ID)
}

func (d *VendorDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Vendor{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVendorNotFound
	}

	return nil
}
