package crypto

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// passwordRule accepts any non-blank password bcrypt can hash.
func passwordRule(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	return strings.TrimSpace(password) != "" && len(password) <= MaxPasswordBytes
}

// otpRule accepts exactly OTPDigits ASCII digits.
func otpRule(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != OTPDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RegisterPasswordValidator registers the "password" and "otp" validation tags.
// Registering twice on the same validator is harmless.
func RegisterPasswordValidator(v *validator.Validate) error {
	if err := v.RegisterValidation("password", passwordRule); err != nil {
		return err
	}
	return v.RegisterValidation("otp", otpRule)
}
