package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateEventRequest struct {
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	RepeatDaily     bool   `json:"repeat_daily"`
	MinNumber       int    `json:"min_number"`
	MaxNumber       int    `json:"max_number"`
	ExcludedNumbers string `json:"excluded_numbers"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.StartDate, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&req.EndDate, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&req.MinNumber, validation.Min(0), validation.Max(99)),
		validation.Field(&req.MaxNumber, validation.Min(0), validation.Max(99)),
	)
}

type UpdateEventRequest struct {
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Active          bool   `json:"active"`
	RepeatDaily     bool   `json:"repeat_daily"`
	MinNumber       int    `json:"min_number"`
	MaxNumber       int    `json:"max_number"`
	ExcludedNumbers string `json:"excluded_numbers"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.MinNumber, validation.Min(0), validation.Max(99)),
		validation.Field(&req.MaxNumber, validation.Min(0), validation.Max(99)),
	)
}

type AwardEventRequest struct {
	FirstPrize  string `json:"first_prize"`
	SecondPrize string `json:"second_prize"`
	ThirdPrize  string `json:"third_prize"`
}

func (req *AwardEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.FirstPrize, validation.Required),
	)
}
