package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

type ErrorValidateResponse struct {
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e ErrorValidateResponse) Error() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", e.Field, e.Message))
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(fieldName)
	registerDecimal()
	registerDecimalGreaterOrEqual()
	registerDocumentID()
}

// fieldName reports the json name of a field, or its path parameter name for
// fields bound from the URL.
func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		name = fld.Tag.Get("param")
	}
	return name
}

// ValidateStruct returns nil or a *multierror.Error of ErrorValidateResponse.
// Messages come from models.MapErrors, keyed "<field>_<tag>".
func ValidateStruct(toValidate interface{}) error {
	var errs *multierror.Error

	err := validate.Struct(toValidate)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		errs = multierror.Append(errs, ErrorValidateResponse{Message: err.Error()})
		return errs.ErrorOrNil()
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		for _, valErr := range valErrs {
			errs = multierror.Append(errs, toResponse(valErr))
		}
	}

	return errs.ErrorOrNil()
}

func toResponse(valErr validator.FieldError) ErrorValidateResponse {
	for _, key := range []string{
		fmt.Sprintf("%s_%s", valErr.Namespace(), valErr.Tag()),
		fmt.Sprintf("%s_%s", valErr.Field(), valErr.Tag()),
	} {
		if data, found := models.MapErrors[key]; found {
			return ErrorValidateResponse{
				Code:    data.Code,
				Field:   valErr.Field(),
				Message: data.ErrorMessage.Error(),
			}
		}
	}

	return ErrorValidateResponse{
		Code:    "UNKNOW",
		Field:   valErr.Field(),
		Message: strings.TrimSpace(fmt.Sprintf("%s %s", valErr.Tag(), valErr.Param())),
	}
}

// registerDecimal lets validator see decimals as their string form.
func registerDecimal() {
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
}

func registerDecimalGreaterOrEqual() {
	validate.RegisterValidation("decimalGreaterOrEqual", func(fl validator.FieldLevel) bool {
		data, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		value, err := decimal.NewFromString(data)
		if err != nil {
			return false
		}
		min, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return value.GreaterThanOrEqual(min)
	})
}

// documentId accepts ids that can be used as one path segment of a
// document reference.
func registerDocumentID() {
	validate.RegisterValidation("documentId", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return id != "" && !strings.Contains(id, "/") && strings.TrimSpace(id) == id
	})
}
