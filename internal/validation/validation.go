// Package validation checks request payloads before they reach the billing
// core and flattens failures into field-level messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"

	"medstock/m/domain"
)

// DefaultRegion is used to interpret phone numbers written without a country
// prefix.
const DefaultRegion = "IN"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	// Numeric tags (gte, gt) on money fields compare the decimal value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
		return domain.PaymentMethod(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	return v
}

// Struct validates s against its `validate` tags. Failures come back as a
// *domain.ValidationError keyed by JSON field path.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}
	return ProcessValidationErrors(fieldErrs)
}

// ProcessValidationErrors converts validator output into domain field errors.
func ProcessValidationErrors(errs validator.ValidationErrors) *domain.ValidationError {
	out := &domain.ValidationError{}
	for _, fe := range errs {
		out.Add(fieldPath(fe), message(fe))
	}
	return out
}

// fieldPath drops the root struct name, e.g. "request.items[0].stockId"
// becomes "items[0].stockId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "paymentmethod":
		return "must be one of " + joinPaymentMethods()
	case "category":
		return "must be one of " + joinCategories()
	case "dive":
		return "is invalid"
	}
	return "failed " + fe.Tag() + " check"
}

func joinPaymentMethods() string {
	names := make([]string, len(domain.PaymentMethods))
	for i, m := range domain.PaymentMethods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func joinCategories() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// Phone parses raw in the default region and returns the key ledgers are
// grouped by. Numbers in the default region are keyed by their national
// significant number: "+91 98765 43210", "098765 43210" and "9876543210" all
// normalise to "9876543210". Numbers from other countries keep their country
// code in E.164 form ("+1 987 654 3210" is "+19876543210") so they never
// share a ledger with a local number.
func Phone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("is required")
	}
	num, err := libphonenumber.Parse(raw, DefaultRegion)
	if err != nil {
		return "", errors.New("is not a phone number")
	}
	if !libphonenumber.IsPossibleNumber(num) {
		return "", errors.New("is not a valid phone number")
	}
	if num.GetCountryCode() != int32(libphonenumber.GetCountryCodeForRegion(DefaultRegion)) {
		return libphonenumber.Format(num, libphonenumber.E164), nil
	}
	return libphonenumber.GetNationalSignificantNumber(num), nil
}
