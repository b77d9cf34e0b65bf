package fixture

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

func TestSeed(t *testing.T) {
	proposals := Seed(len(sampleTalks)+2, true)
	require.Len(t, proposals, len(sampleTalks)+2)

	ids := make(map[string]bool)
	for _, p := range proposals {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Title)
		assert.True(t, p.Bookmarked)
		ids[p.ID] = true
	}
	assert.Len(t, ids, len(proposals), "IDs must be unique")
	assert.Contains(t, proposals[len(sampleTalks)].Title, "(part 2)")

	assert.Empty(t, Seed(0, false))
}

func TestCatalogue(t *testing.T) {
	initial := []schemas.ProposalSnapshot{
		{ID: "a", Title: "First"},
		{ID: "b", Title: "Second", Bookmarked: true},
	}

	t.Run("list preserves order and returns copies", func(t *testing.T) {
		c := NewCatalogue(initial...)
		list := c.List()
		if diff := cmp.Diff(initial, list); diff != "" {
			t.Fatalf("List() mismatch (-want +got):\n%s", diff)
		}
		list[0].Bookmarked = true
		got, err := c.Get("a")
		require.NoError(t, err)
		assert.False(t, got.Bookmarked, "mutating the returned slice must not leak into the catalogue")
	})

	t.Run("set bookmarked", func(t *testing.T) {
		c := NewCatalogue(initial...)
		updated, err := c.SetBookmarked("b", false)
		require.NoError(t, err)
		assert.False(t, updated.Bookmarked)

		got, err := c.Get("b")
		require.NoError(t, err)
		assert.False(t, got.Bookmarked)
	})

	t.Run("unknown proposal", func(t *testing.T) {
		c := NewCatalogue(initial...)
		_, err := c.SetBookmarked("missing", true)
		assert.ErrorIs(t, err, ErrUnknownProposal)
		_, err = c.Get("missing")
		assert.ErrorIs(t, err, ErrUnknownProposal)
	})

	t.Run("replace", func(t *testing.T) {
		c := NewCatalogue(initial...)
		c.Replace(nil)
		assert.Zero(t, c.Len())
		_, err := c.Get("a")
		assert.ErrorIs(t, err, ErrUnknownProposal)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		c := NewCatalogue(Seed(20, true)...)
		var wg sync.WaitGroup
		for _, p := range c.List() {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := c.SetBookmarked(id, false)
				assert.NoError(t, err)
			}(p.ID)
		}
		wg.Wait()
		for _, p := range c.List() {
			assert.False(t, p.Bookmarked)
		}
	})
}
