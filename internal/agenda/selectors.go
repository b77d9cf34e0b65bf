package agenda

import (
	"fmt"
	"strconv"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

// Selectors names the markup hooks of the agenda page. The chromedp driver
// queries with CSS, the static driver with XPath; both derive from these.
type Selectors struct {
	ListID         string
	ItemAttr       string
	BookmarkedAttr string
	TitleClass     string
	FormClass      string
	ToggleClass    string
}

// NewSelectors maps the configuration onto Selectors.
func NewSelectors(cfg config.SelectorsConfig) Selectors {
	return Selectors{
		ListID:         cfg.ListID,
		ItemAttr:       cfg.ItemAttr,
		BookmarkedAttr: cfg.BookmarkedAttr,
		TitleClass:     cfg.TitleClass,
		FormClass:      cfg.FormClass,
		ToggleClass:    cfg.ToggleClass,
	}
}

// CSSList matches the proposal list container.
func (s Selectors) CSSList() string { return "#" + s.ListID }

// CSSItem matches every proposal item.
func (s Selectors) CSSItem() string { return fmt.Sprintf("[%s]", s.ItemAttr) }

// CSSItemByID matches the proposal item with the given ID.
func (s Selectors) CSSItemByID(id string) string {
	return fmt.Sprintf("[%s=%q]", s.ItemAttr, id)
}

// CSSItemInState matches the proposal item with the given ID only while its
// bookmarked attribute carries the given state.
func (s Selectors) CSSItemInState(id string, bookmarked bool) string {
	return fmt.Sprintf("%s[%s=%q]", s.CSSItemByID(id), s.BookmarkedAttr, strconv.FormatBool(bookmarked))
}

// CSSToggleByID matches the bookmark toggle of the proposal with the given ID.
func (s Selectors) CSSToggleByID(id string) string {
	return fmt.Sprintf("%s .%s", s.CSSItemByID(id), s.ToggleClass)
}

// XPathItem matches every proposal item.
func (s Selectors) XPathItem() string { return fmt.Sprintf("//*[@%s]", s.ItemAttr) }

// XPathTitle matches the title element relative to an item.
func (s Selectors) XPathTitle() string { return xpathClass(s.TitleClass) }

// XPathForm matches the bookmark form relative to an item.
func (s Selectors) XPathForm() string { return xpathClass(s.FormClass) }

func xpathClass(class string) string {
	return fmt.Sprintf(".//*[contains(concat(' ', normalize-space(@class), ' '), ' %s ')]", class)
}

// ParseBookmarked interprets the bookmarked attribute value.
func ParseBookmarked(v string) bool {
	switch v {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// XPathList matches the proposal list container.
func (s Selectors) XPathList() string { return fmt.Sprintf("//*[@id='%s']", s.ListID) }

// XPathItemByID matches the proposal item with the given ID.
func (s Selectors) XPathItemByID(id string) string {
	return fmt.Sprintf("//*[@%s='%s']", s.ItemAttr, id)
}
