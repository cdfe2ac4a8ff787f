package pages

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Class names OrangeHRM uses for user-facing messages.
const (
	alertClass      = "oxd-alert-content-text"
	fieldErrorClass = "oxd-input-field-error-message"
)

// Snapshot is the user-visible part of a rendered page.
type Snapshot struct {
	Title       string
	Alerts      []string
	FieldErrors []string
	Text        string
	Truncated   bool
}

// ParseSnapshot extracts the title, alert banners, field errors and visible
// text from rendered HTML. Text is cut to at most maxLength bytes, never
// inside a UTF-8 sequence, and Truncated records the cut.
func ParseSnapshot(rawHTML string, maxLength int) (*Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	s := &Snapshot{
		Title:       findTitle(doc),
		Alerts:      textsByClass(doc, alertClass),
		FieldErrors: textsByClass(doc, fieldErrorClass),
	}

	var b strings.Builder
	s.Truncated = collectText(doc, &b, maxLength)
	s.Text = b.String()
	return s, nil
}

// Excerpt describes the page in one line: its title and the start of its
// visible text.
func (s *Snapshot) Excerpt() string {
	text := s.Text
	if s.Truncated {
		text += "..."
	}
	switch {
	case s.Title == "":
		return text
	case text == "":
		return s.Title
	}
	return s.Title + ": " + text
}

// HasAlert reports whether any alert banner contains substr.
func (s *Snapshot) HasAlert(substr string) bool {
	for _, a := range s.Alerts {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

// collectText appends visible text separated by single spaces and reports
// whether it stopped at maxLength.
func collectText(n *html.Node, b *strings.Builder, maxLength int) bool {
	if n.Type == html.ElementNode && isHidden(n.Data) {
		return false
	}
	if n.Type == html.TextNode {
		text := strings.Join(strings.Fields(n.Data), " ")
		if text == "" {
			return false
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		if maxLength > 0 && b.Len()+len(text) > maxLength {
			b.WriteString(cutUTF8(text, maxLength-b.Len()))
			return true
		}
		b.WriteString(text)
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if collectText(c, b, maxLength) {
			return true
		}
	}
	return false
}

// cutUTF8 returns the longest prefix of s no longer than n bytes that ends
// on a rune boundary.
func cutUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isHidden(tag string) bool {
	switch strings.ToLower(tag) {
	case "script", "style", "noscript", "template", "svg", "title", "head":
		return true
	}
	return false
}

func textsByClass(doc *html.Node, class string) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			if t := nodeText(n); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b, 0)
	return b.String()
}

func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}
