package portal

import (
	"errors"
	"testing"

	"github.com/edusync/portal/core"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{Email: "diop@example.com", Password: "s3cret"}, false},
		{"email normalized", Credentials{Email: "  DIOP@Example.COM ", Password: "s3cret"}, false},
		{"missing email", Credentials{Password: "s3cret"}, true},
		{"malformed email", Credentials{Email: "not-an-email", Password: "s3cret"}, true},
		{"missing password", Credentials{Email: "diop@example.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFieldErrors(t *testing.T) {
	creds := Credentials{Password: "s3cret"}
	err := creds.Validate()

	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Validate() = %T; want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
		t.Errorf("Fields = %+v; want one error keyed by the JSON field name", vErr.Fields)
	}
	if vErr.Fields[0].Error != "this field is required" {
		t.Errorf("Error = %q; want the custom required text", vErr.Fields[0].Error)
	}
}

func TestCredentialsValidateLowersEmail(t *testing.T) {
	creds := Credentials{Email: "  DIOP@Example.COM ", Password: "s3cret"}
	if err := creds.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if creds.Email != "diop@example.com" {
		t.Errorf("Email = %q; want lowered and trimmed", creds.Email)
	}
}

func TestPasswordChangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  PasswordChange
		wantErr bool
	}{
		{"valid", PasswordChange{NewPassword: "s3cret", ConfirmPassword: "s3cret"}, false},
		{"too short", PasswordChange{NewPassword: "s3c", ConfirmPassword: "s3c"}, true},
		{"mismatch", PasswordChange{NewPassword: "s3cret", ConfirmPassword: "s3crex"}, true},
		{"missing confirmation", PasswordChange{NewPassword: "s3cret"}, true},
		{"empty", PasswordChange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     NewMessage
		wantErr bool
	}{
		{"valid", NewMessage{TeacherID: 7, Subject: "Absence", Content: "Awa sera absente demain."}, false},
		{"valid with priority", NewMessage{TeacherID: 7, Subject: "Urgent", Content: "x", Priority: "high"}, false},
		{"missing teacher", NewMessage{Subject: "Absence", Content: "x"}, true},
		{"missing subject", NewMessage{TeacherID: 7, Content: "x"}, true},
		{"whitespace-only content", NewMessage{TeacherID: 7, Subject: "Absence", Content: "   "}, true},
		{"unknown priority", NewMessage{TeacherID: 7, Subject: "Absence", Content: "x", Priority: "asap"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}
