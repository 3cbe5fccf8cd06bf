package checkout

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Form is the checkout form. JSON names double as the field keys of
// validation errors.
type Form struct {
	FullName       string               `json:"fullName" validate:"required"`
	Email          string               `json:"email" validate:"required,email"`
	Phone          string               `json:"phone" validate:"required,min=7,max=20"`
	Address        string               `json:"address" validate:"required"`
	PostalCode     string               `json:"postalCode"`
	Landmark       string               `json:"landmark"`
	Notes          string               `json:"notes"`
	CountryID      string               `json:"country" validate:"required"`
	StateID        string               `json:"state" validate:"required"`
	CityID         string               `json:"city" validate:"required"`
	CountryName    string               `json:"countryName"`
	StateName      string               `json:"stateName"`
	CityName       string               `json:"cityName"`
	ShippingMethod string               `json:"shippingMethod"`
	PaymentMethod  domain.PaymentMethod `json:"paymentMethod"`
	CryptoType     domain.CryptoType    `json:"cryptoType,omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

var fieldLabels = map[string]string{
	"fullName": "Full name",
	"email":    "Email",
	"phone":    "Phone number",
	"address":  "Address",
	"country":  "Country",
	"state":    "State",
	"city":     "City",
}

// ValidateForm checks every required field and reports all violations at once.
// It returns nil for a valid form.
func ValidateForm(f Form) domain.FieldErrors {
	f = f.trimmed()
	errs := domain.FieldErrors{}

	var verrs validator.ValidationErrors
	if err := formValidator().Struct(f); err != nil && errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs[fe.Field()] = message(fe)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return label + " is too short"
	case "max":
		return label + " is too long"
	}
	return label + " is invalid"
}

func (f Form) trimmed() Form {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.PostalCode = strings.TrimSpace(f.PostalCode)
	f.Landmark = strings.TrimSpace(f.Landmark)
	f.Notes = strings.TrimSpace(f.Notes)
	return f
}

func (f Form) hasContact() bool {
	return f.FullName != "" && f.Email != "" && f.Phone != ""
}

func (f Form) hasAddress() bool {
	return f.Address != "" && f.CountryID != "" && f.StateID != "" && f.CityID != ""
}

func (f Form) shippingAddress() domain.Address {
	return domain.Address{
		FullName:    f.FullName,
		Phone:       f.Phone,
		Address:     f.Address,
		PostalCode:  f.PostalCode,
		Landmark:    f.Landmark,
		Notes:       f.Notes,
		CountryID:   f.CountryID,
		StateID:     f.StateID,
		CityID:      f.CityID,
		CountryName: f.CountryName,
		StateName:   f.StateName,
		CityName:    f.CityName,
	}
}

// fill copies every field an address carries, blank ones included.
func (f *Form) fill(a domain.Address) {
	f.FullName = a.FullName
	f.Phone = a.Phone
	f.Address = a.Address
	f.PostalCode = a.PostalCode
	f.Landmark = a.Landmark
	f.Notes = a.Notes
	f.CountryID = a.CountryID
	f.StateID = a.StateID
	f.CityID = a.CityID
	f.CountryName = a.CountryName
	f.StateName = a.StateName
	f.CityName = a.CityName
}
