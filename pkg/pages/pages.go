// Package pages holds page objects for the OrangeHRM screens the suite
// touches. Each wraps a playwright.Page whose context carries the base URL,
// so paths are relative.
package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// AppTitle is contained in the title of every OrangeHRM page.
const AppTitle = "OrangeHRM"

// snapshotLimit bounds the visible text kept by Snapshot. The text ends up
// in login errors, so it stays short.
const snapshotLimit = 240

type base struct {
	page playwright.Page
	path string
}

// Page returns the wrapped page.
func (b base) Page() playwright.Page {
	return b.page
}

// Path returns the page's path relative to the base URL.
func (b base) Path() string {
	return b.path
}

// Open navigates to the page and waits for the DOM to load.
func (b base) Open() error {
	_, err := b.page.Goto(b.path, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", b.path, err)
	}
	return nil
}

// Snapshot parses the rendered page.
func (b base) Snapshot() (*Snapshot, error) {
	content, err := b.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	return ParseSnapshot(content, snapshotLimit)
}

// assertTitle checks the page title contains AppTitle.
func (b base) assertTitle() error {
	title, err := b.page.Title()
	if err != nil {
		return fmt.Errorf("failed to read title: %w", err)
	}
	if !strings.Contains(title, AppTitle) {
		return fmt.Errorf("title %q does not contain %q", title, AppTitle)
	}
	return nil
}
