// internal/browser/agenda_page.go
package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/internal/agenda"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AgendaPage is the agenda view driven through a browser tab.
type AgendaPage struct {
	session   *Session
	url       string
	selectors agenda.Selectors
	logger    *zap.Logger

	mu      sync.Mutex
	visited bool
}

var _ agenda.Page = (*AgendaPage)(nil)

// NewAgendaPage binds an agenda page object to a session.
func NewAgendaPage(session *Session, cfg config.AgendaConfig) (*AgendaPage, error) {
	target, err := agenda.NewLocator(cfg).URL()
	if err != nil {
		return nil, err
	}
	return &AgendaPage{
		session:   session,
		url:       target,
		selectors: agenda.NewSelectors(cfg.Selectors),
		logger:    session.logger.Named("agenda_page"),
	}, nil
}

// Visit navigates the tab to the agenda and waits for the proposal list.
func (p *AgendaPage) Visit(ctx context.Context) error {
	if err := p.session.Navigate(ctx, p.url, p.selectors.CSSList()); err != nil {
		return err
	}
	p.mu.Lock()
	p.visited = true
	p.mu.Unlock()
	return nil
}

// proposalData is what the query script returns per item.
type proposalData struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Bookmarked string `json:"bookmarked"`
}

// Proposals evaluates the query script against the live DOM on every call.
func (p *AgendaPage) Proposals(ctx context.Context) ([]agenda.Proposal, error) {
	p.mu.Lock()
	visited := p.visited
	p.mu.Unlock()
	if !visited {
		return nil, agenda.ErrNotVisited
	}

	var items []proposalData
	if err := p.session.Evaluate(ctx, p.queryScript(), &items); err != nil {
		return nil, fmt.Errorf("failed to read proposals: %w", err)
	}

	proposals := make([]agenda.Proposal, 0, len(items))
	for _, item := range items {
		proposals = append(proposals, &proposal{
			page:       p,
			id:         item.ID,
			title:      strings.TrimSpace(item.Title),
			bookmarked: agenda.ParseBookmarked(item.Bookmarked),
		})
	}
	return proposals, nil
}

func (p *AgendaPage) queryScript() string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => {
	const title = el.querySelector(%s);
	return {
		id: el.getAttribute(%s) || "",
		title: title ? title.textContent : "",
		bookmarked: el.getAttribute(%s) || ""
	};
})`,
		jsString(p.selectors.CSSItem()),
		jsString("."+p.selectors.TitleClass),
		jsString(p.selectors.ItemAttr),
		jsString(p.selectors.BookmarkedAttr),
	)
}

// itemState is what the state script returns for one item.
type itemState struct {
	Found      bool   `json:"found"`
	Bookmarked string `json:"bookmarked"`
}

// stateScript reads the bookmarked attribute of one item.
func (p *AgendaPage) stateScript(id string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	return el === null ? {found: false, bookmarked: ""} : {found: true, bookmarked: el.getAttribute(%s) || ""};
})()`, jsString(p.selectors.CSSItemByID(id)), jsString(p.selectors.BookmarkedAttr))
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

// proposal is one item read from the live page.
type proposal struct {
	page       *AgendaPage
	id         string
	title      string
	bookmarked bool
}

func (pr *proposal) ID() string       { return pr.id }
func (pr *proposal) Title() string    { return pr.title }
func (pr *proposal) Bookmarked() bool { return pr.bookmarked }

// SetBookmarked clicks the item's toggle and waits for the item to report the
// requested state. Nothing is clicked when the live item already matches.
func (pr *proposal) SetBookmarked(ctx context.Context, bookmarked bool) error {
	p := pr.page

	var live itemState
	if err := p.session.Evaluate(ctx, p.stateScript(pr.id), &live); err != nil {
		return fmt.Errorf("failed to read bookmark of proposal %s: %w", pr.id, err)
	}
	if !live.Found {
		return fmt.Errorf("%w: %s", agenda.ErrProposalGone, pr.id)
	}
	if agenda.ParseBookmarked(live.Bookmarked) == bookmarked {
		pr.bookmarked = bookmarked
		return nil
	}

	err := p.session.Run(ctx,
		chromedp.Click(p.selectors.CSSToggleByID(pr.id), chromedp.ByQuery),
		chromedp.WaitReady(p.selectors.CSSItemInState(pr.id, bookmarked), chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to set bookmark of proposal %s to %t: %w", pr.id, bookmarked, err)
	}

	p.logger.Debug("Bookmark toggled.", zap.String("proposal_id", pr.id), zap.Bool("bookmarked", bookmarked))
	pr.bookmarked = bookmarked
	return nil
}
