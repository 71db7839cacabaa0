package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/recruitops-api/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator checks API request bodies
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateSourceConfig validates a PUT /v1/sources body
func (v *Validator) ValidateSourceConfig(req *models.SourceConfigRequest) []ValidationError {
	errs := v.check(req)
	if strings.TrimSpace(req.SpreadsheetID) == "" && req.SpreadsheetID != "" {
		errs = append(errs, ValidationError{Field: "spreadsheetId", Message: "is required"})
	}
	if strings.ContainsAny(req.SpreadsheetID, "/?#") {
		errs = append(errs, ValidationError{Field: "spreadsheetId", Message: "must be a spreadsheet id, not a URL", Value: req.SpreadsheetID})
	}
	return errs
}

// ValidateImportRequest validates a POST /v1/imports body
func (v *Validator) ValidateImportRequest(req *models.ImportRequest) []ValidationError {
	return v.check(req)
}

func (v *Validator) check(s interface{}) []ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error()}}
	}

	var errors []ValidationError
	for _, fe := range fieldErrs {
		ve := ValidationError{Field: fieldPath(fe.Namespace()), Message: message(fe)}
		if fe.Tag() != "json" {
			ve.Value = fe.Value()
		}
		errors = append(errors, ve)
	}
	return errors
}

// fieldPath drops the struct name from a namespace such as "SourceConfigRequest.ranges.recruiters.gid"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "numeric":
		return "must be numeric"
	case "json":
		return "must be a JSON service credential"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
