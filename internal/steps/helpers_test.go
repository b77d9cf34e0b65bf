package steps

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/agenda-bdd/internal/agenda"
)

// fakeAgenda is an in-memory agenda whose pages always re-read live state.
type fakeAgenda struct {
	mu         sync.Mutex
	items      []fakeItem
	visits     int
	sets       int
	visitErr   error
	listErr    error
	setErr     error
	failSetFor string
}

type fakeItem struct {
	id, title  string
	bookmarked bool
}

func newFakeAgenda(n int, bookmarked bool) *fakeAgenda {
	a := &fakeAgenda{}
	for i := 0; i < n; i++ {
		a.items = append(a.items, fakeItem{id: fmt.Sprintf("p-%d", i+1), title: fmt.Sprintf("Talk %d", i+1), bookmarked: bookmarked})
	}
	return a
}

func (a *fakeAgenda) factory() PageFactory {
	return func(context.Context) (agenda.Page, error) { return &fakePage{agenda: a}, nil }
}

func (a *fakeAgenda) bookmarkedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, it := range a.items {
		if it.bookmarked {
			n++
		}
	}
	return n
}

type fakePage struct {
	agenda  *fakeAgenda
	visited bool
}

func (p *fakePage) Visit(context.Context) error {
	p.agenda.mu.Lock()
	defer p.agenda.mu.Unlock()
	p.agenda.visits++
	if p.agenda.visitErr != nil {
		return p.agenda.visitErr
	}
	p.visited = true
	return nil
}

func (p *fakePage) Proposals(context.Context) ([]agenda.Proposal, error) {
	if !p.visited {
		return nil, agenda.ErrNotVisited
	}
	p.agenda.mu.Lock()
	defer p.agenda.mu.Unlock()
	if p.agenda.listErr != nil {
		return nil, p.agenda.listErr
	}
	out := make([]agenda.Proposal, 0, len(p.agenda.items))
	for _, it := range p.agenda.items {
		out = append(out, &fakeProposal{agenda: p.agenda, item: it})
	}
	return out, nil
}

type fakeProposal struct {
	agenda *fakeAgenda
	item   fakeItem
}

func (p *fakeProposal) ID() string       { return p.item.id }
func (p *fakeProposal) Title() string    { return p.item.title }
func (p *fakeProposal) Bookmarked() bool { return p.item.bookmarked }

func (p *fakeProposal) SetBookmarked(_ context.Context, b bool) error {
	a := p.agenda
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setErr != nil && (a.failSetFor == "" || a.failSetFor == p.item.id) {
		return a.setErr
	}
	for i := range a.items {
		if a.items[i].id == p.item.id {
			if a.items[i].bookmarked != b {
				a.sets++
			}
			a.items[i].bookmarked = b
			return nil
		}
	}
	return agenda.ErrProposalGone
}
