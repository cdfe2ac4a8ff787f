package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// DashboardPath is the landing page after login.
const DashboardPath = "/web/index.php/dashboard/index"

const userNameSelector = ".oxd-userdropdown-name"

// DashboardPage is the post-login landing page.
type DashboardPage struct {
	base
}

func NewDashboardPage(page playwright.Page) *DashboardPage {
	return &DashboardPage{base{page: page, path: DashboardPath}}
}

// WaitLoaded waits until the URL includes /dashboard and the title is an
// OrangeHRM title.
func (p *DashboardPage) WaitLoaded() error {
	err := p.page.WaitForURL(func(u string) bool {
		return strings.Contains(u, "/dashboard")
	})
	if err != nil {
		return fmt.Errorf("dashboard did not load (at %s): %w", p.page.URL(), err)
	}
	return p.assertTitle()
}

// UserName returns the name shown in the top bar user menu.
func (p *DashboardPage) UserName() (string, error) {
	loc := p.page.Locator(userNameSelector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}); err != nil {
		return "", fmt.Errorf("user menu not visible: %w", err)
	}
	name, err := loc.TextContent()
	if err != nil {
		return "", fmt.Errorf("failed to read user name: %w", err)
	}
	return strings.TrimSpace(name), nil
}
