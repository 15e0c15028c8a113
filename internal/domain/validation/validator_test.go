package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"SecurePass123!", true},
		{"Short1!", true}, // strong but too short; length is a separate rule
		{"nouppercase123!", false},
		{"NOLOWERCASE123!", false},
		{"NoNumbers!!", false},
		{"NoSpecialChar123", false},
		{"Has Space123!", false},
		{"Unicodé123!", false},
		{"Hash#Sign123", false},
	}
	for _, tt := range tests {
		if got := IsStrongPassword(tt.password); got != tt.want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"alice", true},
		{"Alice_01", true},
		{"a-b", false},
		{"a b", false},
		{"user@x", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidUsername(tt.username); got != tt.want {
			t.Errorf("IsValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
		}
	}
}

func TestRequestValidator_Register(t *testing.T) {
	v := MustNewRequestValidator()

	tests := []struct {
		name       string
		req        RegisterRequest
		wantFields map[string]string
	}{
		{
			name: "valid",
			req:  RegisterRequest{Username: "player_1", Password: "SecurePass123!"},
		},
		{
			name:       "short password",
			req:        RegisterRequest{Username: "player_1", Password: "Short1!"},
			wantFields: map[string]string{"password": MsgPasswordSize},
		},
		{
			name:       "no uppercase",
			req:        RegisterRequest{Username: "player_1", Password: "nouppercase123!"},
			wantFields: map[string]string{"password": MsgPasswordStrength},
		},
		{
			name:       "no lowercase",
			req:        RegisterRequest{Username: "player_1", Password: "NOLOWERCASE123!"},
			wantFields: map[string]string{"password": MsgPasswordStrength},
		},
		{
			name:       "no digit",
			req:        RegisterRequest{Username: "player_1", Password: "NoNumbers!!"},
			wantFields: map[string]string{"password": MsgPasswordStrength},
		},
		{
			name:       "no special",
			req:        RegisterRequest{Username: "player_1", Password: "NoSpecialChar123"},
			wantFields: map[string]string{"password": MsgPasswordStrength},
		},
		{
			name:       "password too long",
			req:        RegisterRequest{Username: "player_1", Password: "Aa1!" + strings.Repeat("a", 252)},
			wantFields: map[string]string{"password": MsgPasswordSize},
		},
		{
			name:       "username too short",
			req:        RegisterRequest{Username: "ab", Password: "SecurePass123!"},
			wantFields: map[string]string{"username": MsgUsernameSize},
		},
		{
			name:       "username too long",
			req:        RegisterRequest{Username: strings.Repeat("a", 51), Password: "SecurePass123!"},
			wantFields: map[string]string{"username": MsgUsernameSize},
		},
		{
			name:       "username bad characters",
			req:        RegisterRequest{Username: "bad-name", Password: "SecurePass123!"},
			wantFields: map[string]string{"username": MsgUsernamePattern},
		},
		{
			name: "both blank",
			req:  RegisterRequest{Username: "  ", Password: ""},
			wantFields: map[string]string{
				"username": MsgUsernameRequired,
				"password": MsgPasswordRequired,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			var fe *FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("Validate() error = %v, want *FieldErrors", err)
			}
			if len(fe.Fields) != len(tt.wantFields) {
				t.Errorf("Validate() fields = %v, want %v", fe.Fields, tt.wantFields)
			}
			for field, msg := range tt.wantFields {
				if fe.Fields[field] != msg {
					t.Errorf("Fields[%q] = %q, want %q", field, fe.Fields[field], msg)
				}
			}
		})
	}
}

func TestRequestValidator_Login(t *testing.T) {
	v := MustNewRequestValidator()

	if err := v.Validate(LoginRequest{Username: "alice", Password: "x"}); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	err := v.Validate(LoginRequest{Username: "al", Password: ""})
	var fe *FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("Validate() error = %v, want *FieldErrors", err)
	}
	if fe.Fields["username"] != MsgUsernameSize || fe.Fields["password"] != MsgPasswordRequired {
		t.Errorf("Validate() fields = %v", fe.Fields)
	}
}

func TestFieldErrors_Error(t *testing.T) {
	fe := &FieldErrors{Fields: map[string]string{"username": "u", "password": "p"}}
	if got := fe.Error(); got != "validation failed: password: p; username: u" {
		t.Errorf("Error() = %q", got)
	}
}
