package steps

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/agenda-bdd/internal/agenda"
)

func newAgendaRegistry(t *testing.T, a *fakeAgenda) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterAgendaSteps(reg, NewWorld(t.Name(), a.factory(), zaptest.NewLogger(t))))
	return reg
}

func TestProposalCountStep(t *testing.T) {
	ctx := context.Background()

	t.Run("empty agenda has 0 proposals", func(t *testing.T) {
		reg := newAgendaRegistry(t, newFakeAgenda(0, false))
		_, err := reg.Dispatch(ctx, "the agenda has 0 proposals")
		assert.NoError(t, err)
	})

	t.Run("N passes and N+1 fails as an assertion", func(t *testing.T) {
		a := newFakeAgenda(3, false)
		reg := newAgendaRegistry(t, a)

		_, err := reg.Dispatch(ctx, "the agenda has 3 proposals")
		assert.NoError(t, err)

		_, err = reg.Dispatch(ctx, "the agenda has 4 proposals")
		var assertion *AssertionError
		require.ErrorAs(t, err, &assertion)
		assert.Equal(t, 4, assertion.Expected)
		assert.Equal(t, 3, assertion.Actual)
		assert.Equal(t, 2, a.visits, "each step navigates to the agenda")
	})

	t.Run("navigation error propagates unmodified", func(t *testing.T) {
		a := newFakeAgenda(1, false)
		a.visitErr = errors.New("navigation timeout")
		reg := newAgendaRegistry(t, a)

		_, err := reg.Dispatch(ctx, "the agenda has 1 proposals")
		assert.Same(t, a.visitErr, err)
	})

	t.Run("fetch error propagates unmodified", func(t *testing.T) {
		a := newFakeAgenda(1, false)
		a.listErr = errors.New("element not found")
		reg := newAgendaRegistry(t, a)

		_, err := reg.Dispatch(ctx, "the agenda has 1 proposals")
		assert.Same(t, a.listErr, err)
	})

	t.Run("count is stable across reads", func(t *testing.T) {
		reg := newAgendaRegistry(t, newFakeAgenda(2, true))
		for i := 0; i < 3; i++ {
			_, err := reg.Dispatch(ctx, "the agenda has 2 proposals")
			require.NoError(t, err)
		}
	})
}

func TestClearBookmarksStep(t *testing.T) {
	ctx := context.Background()

	t.Run("every proposal is unbookmarked afterwards", func(t *testing.T) {
		a := newFakeAgenda(4, true)
		reg := newAgendaRegistry(t, a)

		_, err := reg.Dispatch(ctx, "we clear all bookmarks")
		require.NoError(t, err)

		page, err := a.factory()(ctx)
		require.NoError(t, err)
		require.NoError(t, page.Visit(ctx))
		proposals, err := page.Proposals(ctx)
		require.NoError(t, err)
		require.Len(t, proposals, 4)
		for _, p := range proposals {
			assert.False(t, p.Bookmarked(), p.ID())
		}
	})

	t.Run("mixed state only toggles bookmarked proposals", func(t *testing.T) {
		a := newFakeAgenda(3, false)
		a.items[1].bookmarked = true
		reg := newAgendaRegistry(t, a)

		_, err := reg.Dispatch(ctx, "we clear all bookmarks")
		require.NoError(t, err)
		assert.Zero(t, a.bookmarkedCount())
		assert.Equal(t, 1, a.sets)
	})

	t.Run("empty agenda is a no-op", func(t *testing.T) {
		a := newFakeAgenda(0, false)
		reg := newAgendaRegistry(t, a)

		_, err := reg.Dispatch(ctx, "we clear all bookmarks")
		assert.NoError(t, err)
		assert.Equal(t, 1, a.visits)
		assert.Zero(t, a.sets)
	})

	t.Run("mutation error stops the step", func(t *testing.T) {
		a := newFakeAgenda(3, true)
		a.setErr = agenda.ErrProposalGone
		a.failSetFor = "p-2"
		reg := newAgendaRegistry(t, a)

		_, err := reg.Dispatch(ctx, "we clear all bookmarks")
		assert.ErrorIs(t, err, agenda.ErrProposalGone)
		assert.Equal(t, 2, a.bookmarkedCount(), "p-1 cleared, p-2 failed, p-3 untouched")
	})

	t.Run("missing driver", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, RegisterAgendaSteps(reg, NewWorld("no driver", nil, zap.NewNop())))
		_, err := reg.Dispatch(ctx, "we clear all bookmarks")
		assert.ErrorContains(t, err, "no agenda page driver")
	})
}

const agendaFeature = `Feature: Agenda bookmarks

  Scenario: Clearing bookmarks keeps every proposal
    Given we clear all bookmarks
    Then the agenda has 3 proposals

  Scenario: Wrong count
    Then the agenda has 4 proposals
`

func TestAgendaStepsUnderGodog(t *testing.T) {
	a := newFakeAgenda(3, true)
	var out bytes.Buffer

	suite := godog.TestSuite{
		Name: "agenda",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			reg := NewRegistry()
			if err := RegisterAgendaSteps(reg, NewWorld("godog", a.factory(), zap.NewNop())); err != nil {
				t.Errorf("registering steps: %v", err)
				return
			}
			reg.Bind(sc)
		},
		Options: &godog.Options{
			Format: "progress",
			Output: &out,
			FS:     fstest.MapFS{"features/agenda.feature": {Data: []byte(agendaFeature)}},
			Paths:  []string{"features"},
			Strict: true,
		},
	}

	status := suite.Run()
	assert.Equal(t, 1, status, "the wrong-count scenario must fail the suite")
	assert.Zero(t, a.bookmarkedCount())
	assert.Contains(t, out.String(), "expected the number of agenda proposals to be 4, got 3")
}
