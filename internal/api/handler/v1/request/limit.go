package request

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

var numberRangeExp = regexp.MustCompile(`^\d{1,2}(-\d{1,2})?$`)

type CreateLimitRequest struct {
	NumberRange string `json:"number_range"`
	MaxTimes    int    `json:"max_times"`
}

func (req *CreateLimitRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.NumberRange, validation.Required, validation.Match(numberRangeExp)),
		validation.Field(&req.MaxTimes, validation.Required, validation.Min(1)),
	)
}

type UpdateLimitRequest struct {
	MaxTimes int `json:"max_times"`
}

func (req *UpdateLimitRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.MaxTimes, validation.Required, validation.Min(1)),
	)
}
