package booking

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"rentdesk/internal/domain/reservations"
)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone strips separators and a leading plus sign.
func NormalizePhone(raw string) string {
	return strings.TrimPrefix(phoneSeparators.Replace(strings.TrimSpace(raw)), "+")
}

func validateGuest(v *validator.Validate, guest reservations.Guest, errs *ValidationErrors) {
	if strings.TrimSpace(guest.Name) == "" {
		errs.add(FieldGuestName, CodeMissingField, "name is required")
	}

	email := strings.TrimSpace(guest.Email)
	switch {
	case email == "":
		errs.add(FieldGuestEmail, CodeMissingField, "email is required")
	case v.Var(email, "email") != nil:
		errs.add(FieldGuestEmail, CodeInvalidFormat, "email %q is not a valid address", email)
	}

	phone := NormalizePhone(guest.Phone)
	switch {
	case phone == "":
		errs.add(FieldGuestPhone, CodeMissingField, "phone is required")
	case v.Var(phone, "numeric,min=7,max=15") != nil:
		errs.add(FieldGuestPhone, CodeInvalidFormat, "phone must have 7 to 15 digits")
	}

	if strings.TrimSpace(guest.PassportNumber) == "" && strings.TrimSpace(guest.NationalID) == "" {
		errs.add(FieldPassportNumber, CodeMissingIdentityDocument, "passport number or national id is required")
	}
}
