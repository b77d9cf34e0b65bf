// Package static implements the agenda page objects over plain HTTP. Pages
// are fetched and parsed with htmlquery; bookmark toggles are submitted as
// the forms a browser would post.
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/agenda-bdd/internal/agenda"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

// ErrUnexpectedStatus is returned when the agenda application answers with a
// non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// HTTPClient is the subset of *http.Client the driver needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Page is the agenda page read over HTTP.
type Page struct {
	client    HTTPClient
	url       string
	selectors agenda.Selectors
	limiter   *rate.Limiter
	logger    *zap.Logger

	mu      sync.Mutex
	visited bool
}

var _ agenda.Page = (*Page)(nil)

// NewPage creates a static agenda page. A nil client gets one from NewClient.
func NewPage(cfg config.AgendaConfig, client HTTPClient, logger *zap.Logger) (*Page, error) {
	target, err := agenda.NewLocator(cfg).URL()
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = NewClient(cfg, false)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.MaxActionsPerSecond > 0 {
		limit = rate.Limit(cfg.MaxActionsPerSecond)
	}

	return &Page{
		client:    client,
		url:       target,
		selectors: agenda.NewSelectors(cfg.Selectors),
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.Named("static_page"),
	}, nil
}

// URL returns the resolved agenda URL.
func (p *Page) URL() string { return p.url }

// Visit fetches the agenda and checks that the proposal list is present.
func (p *Page) Visit(ctx context.Context) error {
	doc, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	if htmlquery.FindOne(doc, p.selectors.XPathList()) == nil {
		return fmt.Errorf("agenda page %s has no proposal list #%s", p.url, p.selectors.ListID)
	}

	p.mu.Lock()
	p.visited = true
	p.mu.Unlock()

	p.logger.Debug("Visited agenda page.", zap.String("url", p.url))
	return nil
}

// Proposals fetches and parses the agenda again on every call.
func (p *Page) Proposals(ctx context.Context) ([]agenda.Proposal, error) {
	p.mu.Lock()
	visited := p.visited
	p.mu.Unlock()
	if !visited {
		return nil, agenda.ErrNotVisited
	}

	doc, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	items, err := htmlquery.QueryAll(doc, p.selectors.XPathItem())
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}

	proposals := make([]agenda.Proposal, 0, len(items))
	for _, item := range items {
		proposals = append(proposals, p.newProposal(item))
	}
	return proposals, nil
}

func (p *Page) newProposal(item *html.Node) *proposal {
	pr := &proposal{
		page:       p,
		id:         htmlquery.SelectAttr(item, p.selectors.ItemAttr),
		bookmarked: agenda.ParseBookmarked(htmlquery.SelectAttr(item, p.selectors.BookmarkedAttr)),
	}
	if title := htmlquery.FindOne(item, p.selectors.XPathTitle()); title != nil {
		pr.title = strings.TrimSpace(htmlquery.InnerText(title))
	}
	return pr
}

// fetch GETs the agenda page and parses it.
func (p *Page) fetch(ctx context.Context) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build agenda request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	return p.do(req)
}

func (p *Page) do(req *http.Request) (*html.Node, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agenda request %s %s failed: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, req.Method, req.URL, resp.StatusCode)
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse agenda page: %w", err)
	}
	return doc, nil
}

// submit posts the bookmark form of the item with the given ID and returns
// the page the application answered with. When the live page already shows
// the requested state nothing is posted.
func (p *Page) submit(ctx context.Context, id string, bookmarked bool) (*html.Node, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("bookmark throttle: %w", err)
	}

	doc, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	item := htmlquery.FindOne(doc, p.selectors.XPathItemByID(id))
	if item == nil {
		return nil, fmt.Errorf("%w: %s", agenda.ErrProposalGone, id)
	}
	if agenda.ParseBookmarked(htmlquery.SelectAttr(item, p.selectors.BookmarkedAttr)) == bookmarked {
		return doc, nil
	}
	form := htmlquery.FindOne(item, p.selectors.XPathForm())
	if form == nil {
		return nil, fmt.Errorf("proposal %s has no bookmark form", id)
	}

	req, err := p.formRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Submitting bookmark form.",
		zap.String("proposal_id", id),
		zap.String("method", req.Method),
		zap.String("action", req.URL.String()))
	return p.do(req)
}

// formRequest builds the request a browser would send for the form.
func (p *Page) formRequest(ctx context.Context, form *html.Node) (*http.Request, error) {
	base, err := url.Parse(p.url)
	if err != nil {
		return nil, fmt.Errorf("invalid agenda URL: %w", err)
	}
	action, err := base.Parse(htmlquery.SelectAttr(form, "action"))
	if err != nil {
		return nil, fmt.Errorf("invalid bookmark form action: %w", err)
	}

	values := url.Values{}
	for _, input := range htmlquery.Find(form, ".//input[@name]") {
		values.Add(htmlquery.SelectAttr(input, "name"), htmlquery.SelectAttr(input, "value"))
	}

	method := strings.ToUpper(htmlquery.SelectAttr(form, "method"))
	if method != http.MethodPost {
		action.RawQuery = values.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, action.String(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req, nil
}

// proposal is one item read from a fetched page.
type proposal struct {
	page       *Page
	id         string
	title      string
	bookmarked bool
}

func (pr *proposal) ID() string       { return pr.id }
func (pr *proposal) Title() string    { return pr.title }
func (pr *proposal) Bookmarked() bool { return pr.bookmarked }

// SetBookmarked submits the toggle form until the item reports the requested
// state. The live page decides whether a submit is needed, not the state read
// with the proposal.
func (pr *proposal) SetBookmarked(ctx context.Context, bookmarked bool) error {
	doc, err := pr.page.submit(ctx, pr.id, bookmarked)
	if err != nil {
		return err
	}

	item := htmlquery.FindOne(doc, pr.page.selectors.XPathItemByID(pr.id))
	if item == nil {
		return fmt.Errorf("%w: %s", agenda.ErrProposalGone, pr.id)
	}
	got := agenda.ParseBookmarked(htmlquery.SelectAttr(item, pr.page.selectors.BookmarkedAttr))
	if got != bookmarked {
		return fmt.Errorf("proposal %s bookmark is %t after toggling, wanted %t", pr.id, got, bookmarked)
	}
	pr.bookmarked = got
	return nil
}
