package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/hrsuite/pkg/session"
)

// dashboardServer mimics the application: the dashboard answers 200 for the
// "good" session cookie and redirects to the login page otherwise.
func dashboardServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(DefaultPath, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth == "Bearer good-token" {
			w.WriteHeader(http.StatusOK)
			return
		}
		c, err := r.Cookie("orangehrm")
		if err != nil || c.Value != "good" {
			http.Redirect(w, r, "/web/index.php/auth/login", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/web/index.php/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func stateWithCookie(srv *httptest.Server, value string, expires float64) session.StorageState {
	u, _ := url.Parse(srv.URL)
	return session.StorageState{Cookies: []session.Cookie{{
		Name:    "orangehrm",
		Value:   value,
		Domain:  u.Hostname(),
		Path:    "/",
		Expires: expires,
	}}}
}

func TestNew_Validation(t *testing.T) {
	_, err := New("not a url", "")
	assert.Error(t, err)

	_, err = New("/relative", "")
	assert.Error(t, err)

	p, err := New("https://opensource-demo.orangehrmlive.com", "")
	require.NoError(t, err)
	assert.Equal(t, "https://opensource-demo.orangehrmlive.com/web/index.php/dashboard/index", p.URL())
}

func TestValidate_LiveSession(t *testing.T) {
	srv := dashboardServer(t)
	p, err := New(srv.URL, "")
	require.NoError(t, err)

	live, err := p.Validate(context.Background(), stateWithCookie(srv, "good", -1))
	require.NoError(t, err)
	assert.True(t, live)
}

func TestValidate_RedirectMeansNotLive(t *testing.T) {
	srv := dashboardServer(t)
	p, err := New(srv.URL, "")
	require.NoError(t, err)

	live, err := p.Validate(context.Background(), stateWithCookie(srv, "stale", -1))
	require.NoError(t, err, "a logged-out session is an answer, not an error")
	assert.False(t, live)
}

func TestValidate_ExpiredCookieDropped(t *testing.T) {
	srv := dashboardServer(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	p, err := New(srv.URL, "", WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	expired := float64(now.Add(-time.Hour).Unix())
	live, err := p.Validate(context.Background(), stateWithCookie(srv, "good", expired))
	require.NoError(t, err)
	assert.False(t, live)
}

func TestValidate_BearerToken(t *testing.T) {
	srv := dashboardServer(t)
	p, err := New(srv.URL, "")
	require.NoError(t, err)

	state := session.StorageState{Tokens: map[string]string{session.TokenBearer: "good-token"}}
	live, err := p.Validate(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, live)
}

func TestValidate_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLive  bool
		wantError bool
	}{
		{name: "ok", status: http.StatusOK, wantLive: true},
		{name: "no content", status: http.StatusNoContent, wantLive: true},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "see other", status: http.StatusSeeOther},
		{name: "server error", status: http.StatusInternalServerError, wantError: true},
		{name: "not found", status: http.StatusNotFound, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status >= 300 && tt.status < 400 {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p, err := New(srv.URL, "/probe")
			require.NoError(t, err)

			live, err := p.Validate(context.Background(), session.StorageState{})
			assert.Equal(t, tt.wantLive, live)
			if tt.wantError {
				var vErr *session.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.status, vErr.Status)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_TransportErrorIsValidationError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p, err := New(base, "", WithTimeout(time.Second))
	require.NoError(t, err)

	live, err := p.Validate(context.Background(), session.StorageState{})
	assert.False(t, live)
	var vErr *session.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, vErr.Status)
}

func TestValidate_DrivesManagerRelogin(t *testing.T) {
	srv := dashboardServer(t)
	p, err := New(srv.URL, "")
	require.NoError(t, err)

	logins := 0
	values := []string{"stale", "good"}
	login := func(ctx context.Context, id session.Identity) (session.StorageState, error) {
		v := values[logins]
		logins++
		return stateWithCookie(srv, v, -1), nil
	}

	mgr := session.NewManager()
	id := session.Identity{Name: "Admin", Secret: "admin123"}

	_, err = mgr.Acquire(context.Background(), id, login, p.Validate)
	require.NoError(t, err)
	h, err := mgr.Acquire(context.Background(), id, login, p.Validate)
	require.NoError(t, err)

	assert.Equal(t, 2, logins, "the stale cookie fails the probe and forces one relogin")
	assert.Equal(t, "good", h.State.Cookies[0].Value)

	h, err = mgr.Acquire(context.Background(), id, login, p.Validate)
	require.NoError(t, err)
	assert.True(t, h.Reused)
	assert.Equal(t, 2, logins)
}
