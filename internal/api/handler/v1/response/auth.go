package response

// VendorResponse is a vendor without the password hash.
type VendorResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

type LoginResponse struct {
	Token  string         `json:"token"`
	Vendor VendorResponse `json:"vendor"`
}
