// Package agenda defines the page-object contracts for the conference agenda
// view. Drivers in internal/browser implement them; step definitions consume them.
package agenda

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

var (
	// ErrNotVisited is returned when proposals are requested before Visit.
	ErrNotVisited = errors.New("agenda page has not been visited")
	// ErrProposalGone is returned when a proposal disappeared from the page
	// between being listed and being acted upon.
	ErrProposalGone = errors.New("proposal is no longer on the agenda page")
)

// Proposal is a single agenda entry as rendered by the page.
type Proposal interface {
	ID() string
	Title() string
	// Bookmarked reports the bookmark state observed when the proposal list was read.
	Bookmarked() bool
	// SetBookmarked drives the page until the proposal's bookmark matches the
	// requested state. The live page is checked first, so nothing changes
	// when it already matches.
	SetBookmarked(ctx context.Context, bookmarked bool) error
}

// Page is the agenda view bound to a single test context.
type Page interface {
	// Visit navigates to the agenda page.
	Visit(ctx context.Context) error
	// Proposals reads the proposals currently on the page. Every call
	// re-queries the live page; nothing is cached between calls.
	Proposals(ctx context.Context) ([]Proposal, error)
}

// Snapshots converts proposals into plain values, preserving order.
func Snapshots(proposals []Proposal) []schemas.ProposalSnapshot {
	out := make([]schemas.ProposalSnapshot, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, schemas.ProposalSnapshot{
			ID:         p.ID(),
			Title:      p.Title(),
			Bookmarked: p.Bookmarked(),
		})
	}
	return out
}

// Locator resolves the absolute URL of the agenda page.
type Locator struct {
	BaseURL string
	Path    string
}

// NewLocator builds a Locator from the agenda configuration.
func NewLocator(cfg config.AgendaConfig) Locator {
	return Locator{BaseURL: cfg.BaseURL, Path: cfg.Path}
}

// URL joins the base URL and the page path.
func (l Locator) URL() (string, error) {
	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid agenda base URL %q: %w", l.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("agenda base URL %q must be absolute", l.BaseURL)
	}
	path := l.Path
	if path == "" {
		path = "/"
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid agenda path %q: %w", l.Path, err)
	}
	// Keep any prefix on the base URL (e.g. https://host/2024/ + agenda).
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref.Path = strings.TrimPrefix(ref.Path, "/")
	return base.ResolveReference(ref).String(), nil
}
