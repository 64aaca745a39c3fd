package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sessionpass/backend/internal/models"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error          string            `json:"error"`                    // Error message
	Details        map[string]string `json:"details,omitempty"`        // Validation details
	CurrentBalance *int64            `json:"currentBalance,omitempty"` // Set when a debit is declined
	TopUpRequired  bool              `json:"topUpRequired,omitempty"`
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper with the wallet's
// custom tags registered.
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterValidation("contact_number", func(fl validator.FieldLevel) bool {
		return NormalizeContactNumber(fl.Field().String()) != ""
	})
	v.RegisterValidation("transaction_kind", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := models.ParseTransactionKind(value)
		return err == nil
	})
	return &ValidationHelper{validator: v}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	errorResp := ErrorResponse{Error: message}

	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	SendJSON(w, statusCode, errorResp)
}

// SendJSON writes v with the given status code.
func SendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
