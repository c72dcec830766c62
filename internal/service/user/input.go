package user

import (
	"net/mail"
	"strings"

	"github.com/questforge/questforge/internal/domain"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
	maxNameLen     = 100
)

// RegisterInput carries a new account request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (in *RegisterInput) Validate() error {
	var fields []domain.FieldError

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fields = append(fields, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(in.Name) > maxNameLen {
		fields = append(fields, domain.FieldError{Field: "name", Message: "too long"})
	}

	fields = append(fields, validateEmail(in.Email)...)
	fields = append(fields, validatePassword(in.Password)...)

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

// LoginInput carries a login attempt.
type LoginInput struct {
	Email    string
	Password string
}

func (in *LoginInput) Validate() error {
	var fields []domain.FieldError

	if strings.TrimSpace(in.Email) == "" {
		fields = append(fields, domain.FieldError{Field: "email", Message: "required"})
	}
	if in.Password == "" {
		fields = append(fields, domain.FieldError{Field: "password", Message: "required"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

// UpdateProfileInput carries profile changes.
type UpdateProfileInput struct {
	Name string
}

func (in *UpdateProfileInput) Validate() error {
	var fields []domain.FieldError

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fields = append(fields, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(in.Name) > maxNameLen {
		fields = append(fields, domain.FieldError{Field: "name", Message: "too long"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

// ChangePasswordInput carries a password change request.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

func (in *ChangePasswordInput) Validate() error {
	var fields []domain.FieldError

	if in.CurrentPassword == "" {
		fields = append(fields, domain.FieldError{Field: "current_password", Message: "required"})
	}
	fields = append(fields, validatePassword(in.NewPassword)...)

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

func validateEmail(email string) []domain.FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return []domain.FieldError{{Field: "email", Message: "required"}}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return []domain.FieldError{{Field: "email", Message: "invalid address"}}
	}
	return nil
}

func validatePassword(password string) []domain.FieldError {
	var fields []domain.FieldError
	if len(password) < minPasswordLen {
		fields = append(fields, domain.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if len(password) > maxPasswordLen {
		fields = append(fields, domain.FieldError{Field: "password", Message: "too long"})
	}
	return fields
}
