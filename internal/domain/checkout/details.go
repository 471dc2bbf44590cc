// internal/domain/checkout/details.go
package checkout

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Details is what the buyer enters on the checkout form
type Details struct {
	FullName      string              `json:"full_name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Street        string              `json:"street"`
	City          string              `json:"city"`
	State         string              `json:"state"`
	PostalCode    string              `json:"postal_code"`
	Notes         string              `json:"notes"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
}

// Normalize trims every field
func (d *Details) Normalize() {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Street = strings.TrimSpace(d.Street)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.Notes = strings.TrimSpace(d.Notes)
	d.PaymentMethod = order.PaymentMethod(strings.ToLower(strings.TrimSpace(string(d.PaymentMethod))))
}

// Validate checks the required fields. Email is optional.
func (d *Details) Validate() error {
	d.Normalize()
	fields := map[string]string{}

	required := map[string]string{
		"full_name":   d.FullName,
		"phone":       d.Phone,
		"street":      d.Street,
		"city":        d.City,
		"state":       d.State,
		"postal_code": d.PostalCode,
	}
	for name, value := range required {
		if value == "" {
			fields[name] = "required"
		}
	}

	if d.Phone != "" && !validPhone(d.Phone) {
		fields["phone"] = "invalid phone number"
	}
	if d.Email != "" {
		if _, err := mail.ParseAddress(d.Email); err != nil {
			fields["email"] = "invalid email address"
		}
	}
	if !d.PaymentMethod.Valid() {
		fields["payment_method"] = "must be cod or online"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// requireMethod rejects details chosen for a different payment path
func (d *Details) requireMethod(method order.PaymentMethod) error {
	d.Normalize()
	if d.PaymentMethod != method {
		return &ValidationError{Fields: map[string]string{
			"payment_method": fmt.Sprintf("must be %s on this path", method),
		}}
	}
	return nil
}

func validPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

// Address composes the shipping address
func (d *Details) Address() string {
	return order.ComposeAddress(d.Street, d.City, d.State, d.PostalCode)
}
