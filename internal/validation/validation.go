// Package validation holds the client-side checks run before a request is sent.
// Failures are *Error values whose message can be shown to the user directly.
package validation

import (
	"errors"
	"strings"

	"github.com/asaskevich/govalidator"

	"foodrescue/internal/domain"
)

// MinPasswordLength is the shortest password accepted on registration and reset.
const MinPasswordLength = 8

// PasswordSpecials is the set of characters that satisfy the special-character rule.
const PasswordSpecials = "!@#$%^&*"

// Error is a client-side validation failure. Field names the offending input
// when there is one.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a validation error for field.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// PasswordRules reports which strength rules a password satisfies.
type PasswordRules struct {
	Length    bool
	Uppercase bool
	Lowercase bool
	Number    bool
	Special   bool
}

// OK reports whether every rule holds.
func (r PasswordRules) OK() bool {
	return r.Length && r.Uppercase && r.Lowercase && r.Number && r.Special
}

// Missing lists the unmet rules in display order.
func (r PasswordRules) Missing() []string {
	var out []string
	if !r.Length {
		out = append(out, "at least 8 characters")
	}
	if !r.Uppercase {
		out = append(out, "an uppercase letter")
	}
	if !r.Lowercase {
		out = append(out, "a lowercase letter")
	}
	if !r.Number {
		out = append(out, "a number")
	}
	if !r.Special {
		out = append(out, "a special character ("+PasswordSpecials+")")
	}
	return out
}

// CheckPassword evaluates the strength rules without failing.
func CheckPassword(password string) PasswordRules {
	rules := PasswordRules{Length: len(password) >= MinPasswordLength}
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			rules.Uppercase = true
		case r >= 'a' && r <= 'z':
			rules.Lowercase = true
		case r >= '0' && r <= '9':
			rules.Number = true
		case strings.ContainsRune(PasswordSpecials, r):
			rules.Special = true
		}
	}
	return rules
}

// Password rejects passwords that miss any strength rule.
func Password(password string) error {
	rules := CheckPassword(password)
	if rules.OK() {
		return nil
	}
	return New("password", "Password must contain "+strings.Join(rules.Missing(), ", "))
}

// Email rejects empty or malformed addresses.
func Email(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return New("email", "Email is required")
	}
	if !govalidator.StringLength(email, "3", "255") || !govalidator.IsEmail(email) {
		return New("email", "Please enter a valid email address")
	}
	return nil
}

// Credentials checks the login form before it is submitted.
func Credentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return New("", "Email and password are required")
	}
	return nil
}

// Registration checks a sign-up form.
func Registration(reg domain.Registration) error {
	if err := Email(reg.Email); err != nil {
		return err
	}
	if strings.TrimSpace(reg.Name) == "" {
		return New("name", "Name is required")
	}
	if !reg.Role.IsValid() {
		return New("role", "Please choose a role: donor, ngo or admin")
	}
	return Password(reg.Password)
}

// PasswordReset checks a reset confirmation before it is sent.
func PasswordReset(token, password, confirm string) error {
	if strings.TrimSpace(token) == "" {
		return New("token", "Missing or invalid reset link")
	}
	if err := Password(password); err != nil {
		return err
	}
	if password != confirm {
		return New("confirm", "Passwords do not match")
	}
	return nil
}

// OTPCode checks a one-time code is present. Correctness is the server's call.
func OTPCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return New("code", "Please enter the code from your email")
	}
	return nil
}

// ClaimStatus accepts only the statuses an NGO may set on its claim.
func ClaimStatus(status domain.FoodStatus) error {
	if !status.IsClaimUpdate() {
		return New("status", "Status must be delivered or cancelled")
	}
	return nil
}

// FoodSubmission checks a donation offer has everything a pickup needs.
func FoodSubmission(sub domain.FoodSubmission) error {
	switch {
	case strings.TrimSpace(sub.Name) == "":
		return New("name", "Food name is required")
	case strings.TrimSpace(sub.Quantity) == "":
		return New("quantity", "Quantity is required")
	case strings.TrimSpace(sub.Location) == "":
		return New("location", "Pickup location is required")
	case sub.PickupTime.IsZero():
		return New("pickup_time", "Pickup time is required")
	}
	return nil
}
