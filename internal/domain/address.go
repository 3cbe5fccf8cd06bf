package domain

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Address struct {
	ID          string `json:"id,omitempty"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address" validate:"required"`
	PostalCode  string `json:"postal_code,omitempty"`
	Landmark    string `json:"landmark,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CountryID   string `json:"country_id" validate:"required"`
	StateID     string `json:"state_id" validate:"required"`
	CityID      string `json:"city_id" validate:"required"`
	CountryName string `json:"country_name,omitempty"`
	StateName   string `json:"state_name,omitempty"`
	CityName    string `json:"city_name,omitempty"`
	IsDefault   bool   `json:"is_default"`
}

// addressFields maps struct fields to the keys of reported violations.
var addressFields = map[string]string{
	"Address":   "address",
	"CountryID": "country",
	"StateID":   "state",
	"CityID":    "city",
}

var (
	addressValidator *validator.Validate
	addressOnce      sync.Once
)

// Validate reports every missing required field. Partial location chains are rejected.
func (a Address) Validate() FieldErrors {
	addressOnce.Do(func() {
		addressValidator = validator.New(validator.WithRequiredStructEnabled())
	})

	a.Address = strings.TrimSpace(a.Address)
	err := addressValidator.Struct(a)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"address": err.Error()}
	}
	errs := FieldErrors{}
	for _, fe := range verrs {
		if key, ok := addressFields[fe.StructField()]; ok {
			errs[key] = key + " is required"
		}
	}
	return errs
}

// Location is one node of the country -> state -> city hierarchy.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
