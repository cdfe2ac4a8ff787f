// Package probe checks whether a cached storage state still belongs to a
// live session by replaying it against an authenticated endpoint.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/entrhq/hrsuite/pkg/session"
)

// DefaultPath is the authenticated page requested by the probe.
const DefaultPath = "/web/index.php/dashboard/index"

// DefaultTimeout bounds a single probe request.
const DefaultTimeout = 10 * time.Second

// Probe issues one authenticated GET per validation.
type Probe struct {
	target  *url.URL
	client  *http.Client
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Probe.
type Option func(*Probe)

// WithHTTPClient sets the client used for requests. Its Jar and
// CheckRedirect are replaced per request.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Probe) {
		p.client = c
	}
}

// WithTimeout bounds each probe request.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) {
		p.timeout = d
	}
}

// WithClock sets the time source used to drop expired cookies.
func WithClock(now func() time.Time) Option {
	return func(p *Probe) {
		p.now = now
	}
}

// New creates a probe for path relative to baseURL. An empty path selects
// DefaultPath.
func New(baseURL, path string, opts ...Option) (*Probe, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if path == "" {
		path = DefaultPath
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid probe path %q: %w", path, err)
	}

	p := &Probe{
		target:  base.ResolveReference(ref),
		client:  &http.Client{},
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// URL returns the probed endpoint.
func (p *Probe) URL() string {
	return p.target.String()
}

// Validate implements session.ValidateFunc. A 2xx response means the session
// is live; a redirect, 401 or 403 means it is not. Anything else, including
// transport failures, is reported as a *session.ValidationError.
func (p *Probe) Validate(ctx context.Context, state session.StorageState) (bool, error) {
	jar, err := p.jar(state)
	if err != nil {
		return false, &session.ValidationError{Err: err}
	}

	client := *p.client
	client.Jar = jar
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target.String(), nil)
	if err != nil {
		return false, &session.ValidationError{Err: fmt.Errorf("failed to build probe request: %w", err)}
	}
	if token := state.Tokens[session.TokenBearer]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, &session.ValidationError{Err: fmt.Errorf("probe request failed: %w", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return classify(resp.StatusCode)
}

func classify(status int) (bool, error) {
	switch {
	case status >= 200 && status < 300:
		return true, nil
	case status >= 300 && status < 400, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return false, nil
	default:
		return false, &session.ValidationError{Status: status, Err: fmt.Errorf("unexpected status %s", http.StatusText(status))}
	}
}

// jar builds a cookie jar holding the unexpired cookies of state.
func (p *Probe) jar(state session.StorageState) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	byOrigin := make(map[string][]*http.Cookie)
	origins := make(map[string]*url.URL)
	for _, c := range state.LiveCookies(p.now()) {
		u := cookieURL(c, p.target)
		key := u.String()
		origins[key] = u
		byOrigin[key] = append(byOrigin[key], toHTTPCookie(c))
	}
	for key, cookies := range byOrigin {
		jar.SetCookies(origins[key], cookies)
	}
	return jar, nil
}

// cookieURL returns a URL the jar accepts the cookie from.
func cookieURL(c session.Cookie, target *url.URL) *url.URL {
	host := strings.TrimPrefix(c.Domain, ".")
	if host == "" {
		host = target.Hostname()
	}
	scheme := target.Scheme
	if c.Secure {
		scheme = "https"
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &url.URL{Scheme: scheme, Host: hostWithPort(host, target), Path: path}
}

func hostWithPort(host string, target *url.URL) string {
	if port := target.Port(); port != "" && host == target.Hostname() {
		return host + ":" + port
	}
	return host
}

func toHTTPCookie(c session.Cookie) *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
	// Host-only cookies carry no leading dot in Playwright storage state
	if strings.HasPrefix(c.Domain, ".") {
		hc.Domain = c.Domain
	}
	if !c.IsSession() {
		hc.Expires = time.Unix(int64(c.Expires), 0)
	}
	switch strings.ToLower(c.SameSite) {
	case "strict":
		hc.SameSite = http.SameSiteStrictMode
	case "lax":
		hc.SameSite = http.SameSiteLaxMode
	case "none":
		hc.SameSite = http.SameSiteNoneMode
	}
	return hc
}
