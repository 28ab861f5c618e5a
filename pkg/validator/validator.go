package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration failures only happen for non-function arguments,
	// which would be a programming error caught by any test run.
	_ = v.RegisterValidation("login", validLogin)
	_ = v.RegisterValidation("password", validPassword)
	return v
}

// validLogin enforces the login shape: 3-16 characters, at least 3 letters,
// alphanumerics plus '_' and '-' only.
func validLogin(fl validator.FieldLevel) bool {
	login := fl.Field().String()
	if len(login) < 3 || len(login) > 16 {
		return false
	}

	letters := 0
	for _, ch := range login {
		switch {
		case unicode.IsLetter(ch) && ch < 128:
			letters++
		case unicode.IsDigit(ch) && ch < 128, ch == '_', ch == '-':
		default:
			return false
		}
	}
	return letters >= 3
}

// validPassword enforces the password shape: at least 8 characters with at
// least one lowercase letter, one uppercase letter, one digit, and one of
// the special characters @$!%*?&.
func validPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case strings.ContainsRune("@$!%*?&", ch):
			hasSpecial = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSpecial
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with a user-friendly message.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", err.Field(), msgForTag(err)))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[err.Field()] = msgForTag(err)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "login":
		return "must be 3-16 characters with at least 3 letters, using only letters, digits, '_' and '-'"
	case "password":
		return "must be at least 8 characters with one lowercase letter, one uppercase letter, one digit, and one of @$!%*?&"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate reads JSON from the request body, decodes it into dst,
// and validates it. Returns a 400 error response on failure.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
