// Package session caches authenticated browser state for UI test suites.
//
// A test asks the Manager for a session belonging to an Identity. The
// Manager hands back a cached StorageState when a caller-supplied validation
// probe accepts it, and otherwise performs a single real login through a
// caller-supplied procedure and caches the result.
//
// # Lifecycle
//
// Each identity moves through two states:
//
//	ABSENT --login ok--> VALID --validate ok--> VALID
//	VALID --validate fails--> ABSENT --login--> VALID
//	VALID --Invalidate/Clear--> ABSENT
//
// Concurrent Acquire calls for the same identity share one in-flight
// validate/login and all receive its result. Calls for different identities
// never wait on each other.
//
// # Persistence
//
// A Manager is constructed per run. When a Store is supplied the manager
// loads it once at construction and writes every change through, so
// sessions can be shared across independent runs. Persisted records are
// disposable: deleting them only forces fresh logins.
//
// # Example Usage
//
//	login, err := browser.FormLogin(driver, browser.LoginOptions{})
//	if err != nil {
//	    return err
//	}
//	p, err := probe.New(baseURL, "")
//	if err != nil {
//	    return err
//	}
//
//	mgr := session.NewManager(session.WithStore(fileStore))
//	h, err := mgr.Acquire(ctx, session.Identity{Name: "Admin", Secret: "admin123"}, login, p.Validate)
//	if err != nil {
//	    return err
//	}
//	bctx, err := driver.NewContext(&h.State)
package session
