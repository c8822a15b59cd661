package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/auth"
)

func newTestAuthService(t *testing.T, users *mockUserRepo) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-key-for-jwt-signing", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	return NewAuthService(users, tokens, passwords, testLogger())
}

func TestRegister(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	user, err := svc.Register(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("Register() did not assign an ID")
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if user.HashedPassword == "s3cret" {
		t.Error("password stored in plain text")
	}
	if !strings.HasPrefix(user.HashedPassword, "$2") {
		t.Errorf("HashedPassword = %q, not a bcrypt hash", user.HashedPassword)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	if _, err := svc.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "other")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(t, newMockUserRepo())

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty username", username: "", password: "s3cret"},
		{name: "whitespace username", username: "   ", password: "s3cret"},
		{name: "overlong username", username: strings.Repeat("a", 65), password: "s3cret"},
		{name: "empty password", username: "alice", password: ""},
		{name: "overlong password", username: "alice", password: strings.Repeat("x", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	if _, err := svc.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, err := svc.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("Login() returned an empty token")
	}

	// The issued token must validate back to the same username.
	username, err := svc.tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate() on fresh token error = %v", err)
	}
	if username != "alice" {
		t.Errorf("token subject = %q, want %q", username, "alice")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	if _, err := svc.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errWrongPassword := svc.Login(context.Background(), "alice", "not-the-password")
	_, errUnknownUser := svc.Login(context.Background(), "nobody", "s3cret")

	if !errors.Is(errWrongPassword, apperror.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", errWrongPassword)
	}
	if !errors.Is(errUnknownUser, apperror.ErrUnauthorized) {
		t.Errorf("unknown user error = %v, want ErrUnauthorized", errUnknownUser)
	}

	// The two failures must be indistinguishable to the caller.
	if errWrongPassword.Error() != errUnknownUser.Error() {
		t.Errorf("error messages differ: %q vs %q, login errors must not reveal which credential was wrong",
			errWrongPassword.Error(), errUnknownUser.Error())
	}
}

func TestCurrentUser(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	if _, err := svc.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.CurrentUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}

	// A token subject with no matching user is an auth failure, not a 404.
	_, err = svc.CurrentUser(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("CurrentUser(ghost) error = %v, want ErrUnauthorized", err)
	}
}
