package auth

import (
	"chat-rooms/errors"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest carries the signup form fields. Usernames double as the
// display identity in rooms, so they are kept short and printable.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=32,printascii,excludesall=0x20"`
	Password string `validate:"required,min=8,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper  = false
		hasLower  = false
		hasNumber = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	return hasUpper && hasLower && hasNumber
}
