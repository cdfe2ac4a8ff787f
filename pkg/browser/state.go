package browser

import (
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/hrsuite/pkg/session"
)

func fromPlaywrightState(st *playwright.StorageState) session.StorageState {
	var out session.StorageState
	if st == nil {
		return out
	}

	for _, c := range st.Cookies {
		sc := session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			sc.SameSite = string(*c.SameSite)
		}
		out.Cookies = append(out.Cookies, sc)
	}

	for _, o := range st.Origins {
		so := session.Origin{Origin: o.Origin}
		for _, kv := range o.LocalStorage {
			so.LocalStorage = append(so.LocalStorage, session.NameValue{Name: kv.Name, Value: kv.Value})
		}
		out.Origins = append(out.Origins, so)
	}
	return out
}

// toPlaywrightState converts a cached state into context options. Cookies
// without a domain are scoped to baseURL.
func toPlaywrightState(st session.StorageState, baseURL string) *playwright.OptionalStorageState {
	out := &playwright.OptionalStorageState{}

	for _, c := range st.Cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Domain != "" {
			path := c.Path
			if path == "" {
				path = "/"
			}
			oc.Domain = playwright.String(c.Domain)
			oc.Path = playwright.String(path)
		} else if baseURL != "" {
			oc.URL = playwright.String(baseURL)
		}
		if !c.IsSession() {
			oc.Expires = playwright.Float(c.Expires)
		}
		if ss := sameSite(c.SameSite); ss != nil {
			oc.SameSite = ss
		}
		out.Cookies = append(out.Cookies, oc)
	}

	for _, o := range st.Origins {
		po := playwright.Origin{Origin: o.Origin}
		for _, kv := range o.LocalStorage {
			po.LocalStorage = append(po.LocalStorage, playwright.NameValue{Name: kv.Name, Value: kv.Value})
		}
		out.Origins = append(out.Origins, po)
	}
	return out
}

func sameSite(v string) *playwright.SameSiteAttribute {
	switch strings.ToLower(v) {
	case "strict":
		return playwright.SameSiteAttributeStrict
	case "lax":
		return playwright.SameSiteAttributeLax
	case "none":
		return playwright.SameSiteAttributeNone
	}
	return nil
}
