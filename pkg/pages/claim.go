package pages

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

// ClaimAssignPath is the Assign Claim screen.
const ClaimAssignPath = "/web/index.php/claim/viewAssignClaim"

const navSelector = `[role="navigation"] a, [class*="oxd-main-menu"] a`

// ClaimAssignPage is the Assign Claim screen.
type ClaimAssignPage struct {
	base
}

func NewClaimAssignPage(page playwright.Page) *ClaimAssignPage {
	return &ClaimAssignPage{base{page: page, path: ClaimAssignPath}}
}

// WaitLoaded waits for the Assign button.
func (p *ClaimAssignPage) WaitLoaded() error {
	if err := p.assertTitle(); err != nil {
		return err
	}
	btn := p.page.Locator(buttonSelector, playwright.PageLocatorOptions{HasText: "Assign"}).First()
	if err := btn.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}); err != nil {
		return fmt.Errorf("assign claim page not loaded: %w", err)
	}
	return nil
}

// Sidebar is the main navigation menu.
type Sidebar struct {
	page playwright.Page
}

func NewSidebar(page playwright.Page) *Sidebar {
	return &Sidebar{page: page}
}

// NavigateTo clicks the first menu entry whose text matches label.
func (s *Sidebar) NavigateTo(label *regexp.Regexp) error {
	link := s.page.Locator(navSelector, playwright.PageLocatorOptions{HasText: label}).First()
	if err := link.Click(); err != nil {
		return fmt.Errorf("failed to open menu entry %s: %w", label, err)
	}
	return nil
}

func (s *Sidebar) OpenClaim() error {
	return s.NavigateTo(regexp.MustCompile(`(?i)claim`))
}

func (s *Sidebar) OpenDashboard() error {
	return s.NavigateTo(regexp.MustCompile(`(?i)dashboard`))
}
