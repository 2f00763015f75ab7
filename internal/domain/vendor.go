package domain

import "time"

type VendorRole string

const (
	RoleVendor VendorRole = "vendor"
	RoleAdmin  VendorRole = "admin"
)

// Vendor is a salesperson. Email is the identity key tickets are scoped by.
type Vendor struct {
	ID       uint       `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"-"`
	Role     VendorRole `json:"role"`
	Active   bool       `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
