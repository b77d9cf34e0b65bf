package steps

import (
	"context"

	"go.uber.org/zap"
)

// Phrases of the agenda steps.
const (
	PhraseClearBookmarks = "we clear all bookmarks"
	PhraseProposalCount  = "the agenda has {count:Int} proposals"
)

// RegisterAgendaSteps registers the agenda step definitions for a World.
func RegisterAgendaSteps(reg *Registry, w *World) error {
	// --- Given steps ---
	if err := reg.Register(Given, PhraseClearBookmarks, w.clearAllBookmarks); err != nil {
		return err
	}

	// --- Then steps ---
	return reg.Register(Then, PhraseProposalCount, w.agendaHasProposals)
}

// clearAllBookmarks visits the agenda and unbookmarks every listed proposal.
// Errors from the page object are returned as they are.
func (w *World) clearAllBookmarks(ctx context.Context) error {
	page, err := w.AgendaPage(ctx)
	if err != nil {
		return err
	}
	if err := page.Visit(ctx); err != nil {
		return err
	}
	proposals, err := page.Proposals(ctx)
	if err != nil {
		return err
	}
	for _, p := range proposals {
		if err := p.SetBookmarked(ctx, false); err != nil {
			return err
		}
	}
	w.logger.Debug("Cleared bookmarks.", zap.Int("proposals", len(proposals)))
	return nil
}

func (w *World) agendaHasProposals(ctx context.Context, count int) error {
	page, err := w.AgendaPage(ctx)
	if err != nil {
		return err
	}
	if err := page.Visit(ctx); err != nil {
		return err
	}
	proposals, err := page.Proposals(ctx)
	if err != nil {
		return err
	}
	if len(proposals) != count {
		return &AssertionError{Subject: "the number of agenda proposals", Expected: count, Actual: len(proposals)}
	}
	return nil
}
