package e2e

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/entrhq/hrsuite/pkg/browser"
	"github.com/entrhq/hrsuite/pkg/pages"
	"github.com/entrhq/hrsuite/pkg/session"
)

func TestLogin_ValidCredentialsReachDashboard(t *testing.T) {
	env := SetupEnv(t)
	page, _ := env.LoginAsAdmin(t)

	dashboard := pages.NewDashboardPage(page)
	if err := dashboard.Open(); err != nil {
		t.Fatal(err)
	}
	if err := dashboard.WaitLoaded(); err != nil {
		t.Fatal(err)
	}

	name, err := dashboard.UserName()
	if err != nil {
		t.Fatal(err)
	}
	if name == "" {
		t.Error("user name in the top bar is empty")
	}
}

func TestLogin_InvalidPasswordShowsError(t *testing.T) {
	env := SetupEnv(t)
	page := env.NewPage(t, nil)

	login := pages.NewLoginPage(page, env.Config.Login.Path)
	if err := login.Login(env.Admin.Name, "wrong-pass"); err != nil {
		t.Fatal(err)
	}

	msg, err := login.WaitForError()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, pages.InvalidCredentials) {
		t.Errorf("error banner = %q, want it to contain %q", msg, pages.InvalidCredentials)
	}
	if !login.OnLoginPage() {
		t.Errorf("expected to stay on the login page, at %s", page.URL())
	}
}

func TestLogin_FormLoginRejectsBadPassword(t *testing.T) {
	env := SetupEnv(t)

	bad := session.Identity{Name: env.Admin.Name, Secret: "wrong-pass"}
	_, err := env.Login(context.Background(), bad)

	var authErr *session.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if !errors.Is(err, browser.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials, got %v", err)
	}
}
