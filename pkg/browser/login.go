package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/hrsuite/pkg/pages"
	"github.com/entrhq/hrsuite/pkg/session"
)

// DefaultSuccessURL matches any URL under the dashboard.
const DefaultSuccessURL = "**/dashboard/**"

// ErrInvalidCredentials is wrapped by the AuthenticationError returned when
// the application rejects the username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginOptions configures FormLogin.
type LoginOptions struct {
	// Path of the login page; empty selects pages.LoginPath
	Path string

	// SuccessURL is a glob the URL must match once logged in
	SuccessURL string
}

// CompileSuccessURL compiles a success-URL glob. '*' stays within a path
// segment and '**' crosses segments.
func CompileSuccessURL(pattern string) (glob.Glob, error) {
	if pattern == "" {
		pattern = DefaultSuccessURL
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid success URL pattern %q: %w", pattern, err)
	}
	return g, nil
}

// FormLogin returns a login procedure that signs in through the login page
// in a fresh context and captures the resulting storage state. The driver
// must be started before the procedure runs.
func FormLogin(d *Driver, opts LoginOptions) (session.LoginFunc, error) {
	success, err := CompileSuccessURL(opts.SuccessURL)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, id session.Identity) (session.StorageState, error) {
		if err := ctx.Err(); err != nil {
			return session.StorageState{}, err
		}

		bctx, err := d.NewContext(nil)
		if err != nil {
			return session.StorageState{}, err
		}
		defer func() {
			if cerr := d.CloseContext(bctx); cerr != nil {
				d.log.Warnf("Closing login context: %v", cerr)
			}
		}()

		page, err := bctx.NewPage()
		if err != nil {
			return session.StorageState{}, fmt.Errorf("failed to create page: %w", err)
		}

		d.log.Infof("Logging in as %s", id)
		login := pages.NewLoginPage(page, opts.Path)
		if err := login.Login(id.Name, id.Secret); err != nil {
			return session.StorageState{}, err
		}
		if err := ctx.Err(); err != nil {
			return session.StorageState{}, err
		}

		if err := page.WaitForURL(success.Match); err != nil {
			return session.StorageState{}, loginFailure(id, login, page, err)
		}

		state, err := CaptureState(bctx)
		if err != nil {
			return session.StorageState{}, err
		}
		d.log.Infof("Logged in as %s (%d cookies)", id, len(state.Cookies))
		return state, nil
	}, nil
}

// loginFailure explains why the success URL was never reached.
func loginFailure(id session.Identity, login *pages.LoginPage, page playwright.Page, waitErr error) error {
	snap, err := login.Snapshot()
	if err != nil {
		return &session.AuthenticationError{
			Identity: id.String(),
			Err:      fmt.Errorf("success URL not reached (at %s): %w", page.URL(), waitErr),
		}
	}
	return diagnose(id, page.URL(), snap, waitErr)
}

// diagnose turns the page a failed login landed on into an error.
func diagnose(id session.Identity, url string, snap *pages.Snapshot, waitErr error) error {
	if snap.HasAlert(pages.InvalidCredentials) {
		return &session.AuthenticationError{Identity: id.String(), Err: ErrInvalidCredentials}
	}
	if len(snap.FieldErrors) > 0 {
		return &session.AuthenticationError{
			Identity: id.String(),
			Err:      fmt.Errorf("login form rejected input: %v", snap.FieldErrors),
		}
	}
	return &session.AuthenticationError{
		Identity: id.String(),
		Err:      fmt.Errorf("success URL not reached (at %s, page %q): %w", url, snap.Excerpt(), waitErr),
	}
}
