package fixture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

// ErrUnknownProposal is returned for an ID that is not in the catalogue.
var ErrUnknownProposal = errors.New("unknown proposal")

var sampleTalks = []struct{ title, speaker string }{
	{"Structured logging without tears", "Ada Byron"},
	{"Context cancellation in practice", "Grace Hopper"},
	{"Driving Chrome from Go", "Ken Thompson"},
	{"Gherkin for backend teams", "Barbara Liskov"},
	{"Rate limiting shared staging", "Edsger Dijkstra"},
	{"Postgres COPY for test telemetry", "Frances Allen"},
	{"Page objects that age well", "Radia Perlman"},
}

// Catalogue is the in-memory, ordered set of proposals behind the fixture
// agenda. It is safe for concurrent use.
type Catalogue struct {
	mu        sync.RWMutex
	proposals []schemas.ProposalSnapshot
	index     map[string]int
}

// NewCatalogue returns a catalogue holding the given proposals in order.
func NewCatalogue(proposals ...schemas.ProposalSnapshot) *Catalogue {
	c := &Catalogue{}
	c.Replace(proposals)
	return c
}

// Seed generates n proposals with fresh IDs and the given bookmark state.
func Seed(n int, bookmarked bool) []schemas.ProposalSnapshot {
	out := make([]schemas.ProposalSnapshot, 0, n)
	for i := 0; i < n; i++ {
		talk := sampleTalks[i%len(sampleTalks)]
		title := talk.title
		if i >= len(sampleTalks) {
			title = fmt.Sprintf("%s (part %d)", talk.title, i/len(sampleTalks)+1)
		}
		out = append(out, schemas.ProposalSnapshot{
			ID:         uuid.NewString(),
			Title:      title,
			Speaker:    talk.speaker,
			Bookmarked: bookmarked,
		})
	}
	return out
}

// Replace swaps the whole catalogue content.
func (c *Catalogue) Replace(proposals []schemas.ProposalSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.proposals = make([]schemas.ProposalSnapshot, len(proposals))
	copy(c.proposals, proposals)
	c.index = make(map[string]int, len(proposals))
	for i, p := range c.proposals {
		c.index[p.ID] = i
	}
}

// List returns a copy of the proposals in display order.
func (c *Catalogue) List() []schemas.ProposalSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]schemas.ProposalSnapshot, len(c.proposals))
	copy(out, c.proposals)
	return out
}

// Get returns a single proposal.
func (c *Catalogue) Get(id string) (schemas.ProposalSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return schemas.ProposalSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	return c.proposals[i], nil
}

// SetBookmarked updates the bookmark flag and returns the updated proposal.
func (c *Catalogue) SetBookmarked(id string, bookmarked bool) (schemas.ProposalSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return schemas.ProposalSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	c.proposals[i].Bookmarked = bookmarked
	return c.proposals[i], nil
}

// Len returns the number of proposals.
func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.proposals)
}
