package session

import "time"

// StorageState is a snapshot of the browser artifacts that reconstruct an
// authenticated context: cookies, per-origin local storage and bearer tokens.
type StorageState struct {
	Cookies []Cookie          `json:"cookies,omitempty"`
	Origins []Origin          `json:"origins,omitempty"`
	Tokens  map[string]string `json:"tokens,omitempty"`
}

// Cookie is a single browser cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`

	// Domain and Path scope the cookie
	Domain string `json:"domain"`
	Path   string `json:"path"`

	// Expires is a unix timestamp in seconds; -1 marks a session cookie
	Expires float64 `json:"expires"`

	HTTPOnly bool   `json:"httpOnly"`
	Secure   bool   `json:"secure"`
	SameSite string `json:"sameSite,omitempty"`
}

// Origin holds the local storage entries of one origin.
type Origin struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage,omitempty"`
}

// NameValue is a local storage entry.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Token names recognised in StorageState.Tokens.
const (
	TokenBearer = "bearer"
)

// IsSession reports whether the cookie lives only for the browser session.
func (c Cookie) IsSession() bool {
	return c.Expires < 0
}

// Expired reports whether the cookie had expired at now.
func (c Cookie) Expired(now time.Time) bool {
	if c.IsSession() {
		return false
	}
	return c.Expires <= float64(now.Unix())
}

// Clone returns a deep copy of the state.
func (s StorageState) Clone() StorageState {
	out := StorageState{}
	if s.Cookies != nil {
		out.Cookies = make([]Cookie, len(s.Cookies))
		copy(out.Cookies, s.Cookies)
	}
	if s.Origins != nil {
		out.Origins = make([]Origin, len(s.Origins))
		for i, o := range s.Origins {
			out.Origins[i] = Origin{Origin: o.Origin}
			if o.LocalStorage != nil {
				out.Origins[i].LocalStorage = make([]NameValue, len(o.LocalStorage))
				copy(out.Origins[i].LocalStorage, o.LocalStorage)
			}
		}
	}
	if s.Tokens != nil {
		out.Tokens = make(map[string]string, len(s.Tokens))
		for k, v := range s.Tokens {
			out.Tokens[k] = v
		}
	}
	return out
}

// IsEmpty reports whether the state carries no artifacts at all.
func (s StorageState) IsEmpty() bool {
	return len(s.Cookies) == 0 && len(s.Origins) == 0 && len(s.Tokens) == 0
}

// LiveCookies returns the cookies that had not expired at now.
func (s StorageState) LiveCookies(now time.Time) []Cookie {
	live := make([]Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if !c.Expired(now) {
			live = append(live, c)
		}
	}
	return live
}
