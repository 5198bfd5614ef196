package httpapi

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the "password" rule to gin's validator.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("password", validatePassword)
		}
	})
}

func validatePassword(fl validator.FieldLevel) bool {
	return passwordAllowed(fl.Field().String())
}

// passwordAllowed requires a letter, a digit and a special character, and
// accepts only letters, digits, space and !#()_-.
func passwordAllowed(s string) bool {
	var letter, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case r == ' ', r == '!', r == '#', r == '(', r == ')', r == '_', r == '-':
			special = true
		default:
			return false
		}
	}
	return letter && digit && special
}
