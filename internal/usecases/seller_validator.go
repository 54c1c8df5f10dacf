package usecases

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
)

// SellerValidator checks the structure of a seller registration payload and
// reports every failing field, keyed by its JSON path.
type SellerValidator struct {
	validate *validator.Validate
}

// NewSellerValidator creates a validator that names fields by their json tag.
func NewSellerValidator() *SellerValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &SellerValidator{validate: v}
}

// Validate normalises string fields in place and returns a ValidationError
// listing each invalid field, or nil.
func (v *SellerValidator) Validate(input *entities.SellerRequestInput) error {
	if input == nil {
		return domainerrors.Validation("seller request payload is required",
			domainerrors.FieldError{Field: "body", Message: "is required"})
	}
	normalize(input)

	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domainerrors.Validation("invalid seller request payload",
			domainerrors.FieldError{Field: "body", Message: err.Error()})
	}

	fields := make([]domainerrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domainerrors.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return domainerrors.Validation("invalid seller request", fields...)
}

func normalize(input *entities.SellerRequestInput) {
	input.Type = entities.SellerType(strings.ToLower(strings.TrimSpace(string(input.Type))))
	if p := input.PersonalInfo; p != nil {
		p.FullName = strings.TrimSpace(p.FullName)
		p.Email = strings.TrimSpace(p.Email)
		p.Phone = strings.TrimSpace(p.Phone)
		p.Address = strings.TrimSpace(p.Address)
		p.TaxID = strings.TrimSpace(p.TaxID)
	}
	b := &input.BusinessInfo
	b.ShopName = strings.TrimSpace(b.ShopName)
	b.Category = strings.TrimSpace(b.Category)
	b.Description = strings.TrimSpace(b.Description)
}

// fieldPath drops the root struct name: "SellerRequestInput.personalInfo.email" -> "personalInfo.email".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "eq":
		if fe.Kind() == reflect.Bool {
			return "must be accepted"
		}
		return fmt.Sprintf("must equal %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
