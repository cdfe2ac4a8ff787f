package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// LoginPath is the login screen.
const LoginPath = "/web/index.php/auth/login"

// InvalidCredentials is the banner shown after a rejected login.
const InvalidCredentials = "Invalid credentials"

const (
	usernameSelector = `input[name="username"]`
	passwordSelector = `input[name="password"]`
	buttonSelector   = "button.oxd-button"
)

// LoginPage drives the login form.
type LoginPage struct {
	base
}

// NewLoginPage wraps page. An empty path selects LoginPath.
func NewLoginPage(page playwright.Page, path string) *LoginPage {
	if path == "" {
		path = LoginPath
	}
	return &LoginPage{base{page: page, path: path}}
}

// FillUsername replaces the username field's content.
func (p *LoginPage) FillUsername(v string) error {
	if err := p.page.Locator(usernameSelector).Fill(v); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	return nil
}

// FillPassword replaces the password field's content.
func (p *LoginPage) FillPassword(v string) error {
	if err := p.page.Locator(passwordSelector).Fill(v); err != nil {
		// the value is never included in the error
		return fmt.Errorf("failed to fill password: %w", err)
	}
	return nil
}

// Submit clicks the Login button.
func (p *LoginPage) Submit() error {
	btn := p.page.Locator(buttonSelector, playwright.PageLocatorOptions{HasText: "Login"})
	if err := btn.Click(); err != nil {
		return fmt.Errorf("failed to click login: %w", err)
	}
	return nil
}

// Login opens the page, fills both fields and submits.
func (p *LoginPage) Login(username, password string) error {
	if err := p.Open(); err != nil {
		return err
	}
	if err := p.FillUsername(username); err != nil {
		return err
	}
	if err := p.FillPassword(password); err != nil {
		return err
	}
	return p.Submit()
}

// WaitForError waits until the alert banner is visible and returns its text.
func (p *LoginPage) WaitForError() (string, error) {
	alert := p.page.Locator("." + alertClass).First()
	if err := alert.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}); err != nil {
		return "", fmt.Errorf("no login error shown: %w", err)
	}
	text, err := alert.TextContent()
	if err != nil {
		return "", fmt.Errorf("failed to read login error: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// ErrorText returns the alert banners currently rendered, joined by "; ".
// It does not wait; an empty string means no banner is shown.
func (p *LoginPage) ErrorText() (string, error) {
	snap, err := p.Snapshot()
	if err != nil {
		return "", err
	}
	return strings.Join(snap.Alerts, "; "), nil
}

// OnLoginPage reports whether the current URL is the login screen.
func (p *LoginPage) OnLoginPage() bool {
	return strings.Contains(p.page.URL(), "/auth/login")
}
