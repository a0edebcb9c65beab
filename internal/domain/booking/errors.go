package booking

import (
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeMissingField            ErrorCode = "MISSING_FIELD"
	CodeInvalidDateOrder        ErrorCode = "INVALID_DATE_ORDER"
	CodeOutOfRangeDuration      ErrorCode = "OUT_OF_RANGE_DURATION"
	CodeMissingIdentityDocument ErrorCode = "MISSING_IDENTITY_DOCUMENT"
	CodeDatesUnavailable        ErrorCode = "DATES_UNAVAILABLE"
	CodeInvalidFormat           ErrorCode = "INVALID_FORMAT"
	CodeRentalTypeDisabled      ErrorCode = "RENTAL_TYPE_DISABLED"
)

// Field names used in ValidationError.Field.
const (
	FieldType           = "type"
	FieldStart          = "start"
	FieldEnd            = "end"
	FieldMonths         = "months"
	FieldDates          = "dates"
	FieldGuestName      = "guest.name"
	FieldGuestEmail     = "guest.email"
	FieldGuestPhone     = "guest.phone"
	FieldPassportNumber = "guest.passport_number"
	FieldNationalID     = "guest.national_id"
)

// ValidationError is one user-correctable problem with a candidate.
type ValidationError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is every problem found in one pass. A nil or empty value means valid.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return "booking: invalid candidate: " + strings.Join(parts, "; ")
}

func (errs ValidationErrors) Has(code ErrorCode) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

// ForField returns the errors attached to field.
func (errs ValidationErrors) ForField(field string) ValidationErrors {
	var out ValidationErrors
	for _, e := range errs {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

func (errs *ValidationErrors) add(field string, code ErrorCode, format string, args ...any) {
	*errs = append(*errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}
