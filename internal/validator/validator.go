// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernameRegex    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{2,49}$`)
	publicTokenRegex = regexp.MustCompile(`^public-(sandbox|development|production)-[0-9a-fA-F-]{36}$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("username", validateUsername)
		_ = v.RegisterValidation("plaid_public_token", validatePublicToken)
	}
}

// IsUsername accepts 3 to 50 letters, digits, dots, underscores and
// dashes, starting with a letter or digit.
func IsUsername(s string) bool {
	return usernameRegex.MatchString(s)
}

func validateUsername(fl validator.FieldLevel) bool {
	return IsUsername(fl.Field().String())
}

func validatePublicToken(fl validator.FieldLevel) bool {
	return publicTokenRegex.MatchString(fl.Field().String())
}
