package portal

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/edusync/portal/core"
)

// Credentials identifies a parent at login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return translateErr(core.Validate.Struct(c))
}

// PasswordChange is the write-only password update. The backend enforces its
// own policy; the client checks only presence, length and confirmation.
type PasswordChange struct {
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func (pc PasswordChange) Validate() error { return translateErr(core.Validate.Struct(pc)) }

// NewMessage is a message composed for a recipient associated with the
// selected child.
type NewMessage struct {
	TeacherID int    `json:"teacher_id" validate:"required,gt=0"`
	Subject   string `json:"subject" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Priority  string `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
}

func (m *NewMessage) Validate() error {
	m.Subject = core.CleanString(m.Subject)
	m.Content = core.CleanString(m.Content)
	return translateErr(core.Validate.Struct(m))
}

// translateErr converts raw validation errors into field errors with
// translated texts, keyed by JSON field name.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	flds := make([]core.FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, core.FieldError{Field: vErr.Field(), Error: vErr.Translate(core.Translator)})
	}
	return core.NewValidationError(errors.New("invalid input"), flds...)
}
