package auth

import (
	"regexp"
	"sort"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

const minPasswordLen = 8

// FieldErrors maps form field names to user-facing messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fe[k]
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func validateEmail(fe FieldErrors, email string) {
	if email == "" {
		fe["email"] = "Email is required"
	} else if !emailPattern.MatchString(email) {
		fe["email"] = "Invalid email"
	}
}

// ValidateLogin checks the login form.
func ValidateLogin(c Credentials) error {
	fe := FieldErrors{}
	validateEmail(fe, c.Email)
	if c.Password == "" {
		fe["password"] = "Password is required"
	}
	return fe.orNil()
}

// ValidateRegister checks the registration form.
func ValidateRegister(r Registration) error {
	fe := FieldErrors{}
	if r.Name == "" {
		fe["name"] = "Name is required"
	}
	validateEmail(fe, r.Email)
	if r.Password == "" {
		fe["password"] = "Password is required"
	} else if len(r.Password) < minPasswordLen {
		fe["password"] = "Password must be at least 8 characters"
	}
	if r.PasswordConfirmation == "" {
		fe["passwordConfirmation"] = "Please confirm your password"
	} else if r.Password != r.PasswordConfirmation {
		fe["passwordConfirmation"] = "Passwords do not match"
	}
	return fe.orNil()
}
