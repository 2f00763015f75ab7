package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type UpdateVendorRequest struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (req *UpdateVendorRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
	)
}
