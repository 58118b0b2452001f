package rendering

import (
	"strings"

	"github.com/jonathan/portfolio/internal/types"
)

// Kind selects which of the three page variants is rendered.
type Kind int

const (
	// KindLoading renders the loading indicator only.
	KindLoading Kind = iota
	// KindLoaded renders the full portfolio.
	KindLoaded
	// KindFailed renders the failure notice and retry affordance.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindLoaded:
		return "loaded"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Contact holds the fixed outbound links of the Contact section.
// The resume link is not here: it always comes from the profile document.
type Contact struct {
	Email    string
	LinkedIn string
	GitHub   string
}

// MailHref returns the mailto: link for Email.
func (c Contact) MailHref() string {
	if strings.HasPrefix(c.Email, "mailto:") {
		return c.Email
	}
	return "mailto:" + c.Email
}

// NavItem is one in-page anchor of the navigation bar.
type NavItem struct {
	Label  string
	Anchor string
}

// Href returns the in-page link for the item.
func (n NavItem) Href() string {
	return "#" + n.Anchor
}

// NavItems are the five fixed sections, in page order.
var NavItems = []NavItem{
	{Label: "About", Anchor: "about"},
	{Label: "Skills", Anchor: "skills"},
	{Label: "Projects", Anchor: "projects"},
	{Label: "Work", Anchor: "work"},
	{Label: "Contact", Anchor: "contact"},
}

// Page is the view-model passed to the templates.
type Page struct {
	Kind    Kind
	Profile *types.ProfileDocument
	Contact Contact

	// ErrorKind is a short classification shown on the failure page.
	ErrorKind string
	// RetryPath is the form target of the retry button; empty hides the button.
	RetryPath string
	// RefreshSeconds makes the loading page reload itself; zero disables it.
	RefreshSeconds int
}

// Nav returns the navigation items for the templates.
func (p Page) Nav() []NavItem {
	return NavItems
}

// Loading reports whether the page is the loading variant.
func (p Page) Loading() bool { return p.Kind == KindLoading }

// Loaded reports whether the page is the full portfolio.
func (p Page) Loaded() bool { return p.Kind == KindLoaded }

// Failed reports whether the page is the failure variant.
func (p Page) Failed() bool { return p.Kind == KindFailed }
