package middleware

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on structs that don't come in
// through gin's binding (notification preferences, config).
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
