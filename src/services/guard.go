package services

import (
	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"go.uber.org/atomic"
)

const unsavedMessage = "The current record has unsaved changes. Save them before continuing?"

// DirtyGuard tracks whether the form differs from what was last loaded or saved, and
// asks the user before anything replaces it.
type DirtyGuard struct {
	dirty  atomic.Bool
	prompt Prompt
}

func NewDirtyGuard(prompt Prompt) *DirtyGuard {
	return &DirtyGuard{prompt: prompt}
}

// MarkEdited records a field change.
func (g *DirtyGuard) MarkEdited() {
	if !g.dirty.Swap(true) {
		logger.L.Debug("Form marked dirty")
	}
}

// MarkClean records a successful save or reload.
func (g *DirtyGuard) MarkClean() {
	g.dirty.Store(false)
}

func (g *DirtyGuard) IsDirty() bool {
	return g.dirty.Load()
}

// ConfirmOrAbort returns nil when the caller may discard the current form. When the
// form is dirty the user chooses: save runs save and proceeds only if it succeeds,
// discard proceeds as is, cancel returns models.ErrAborted.
func (g *DirtyGuard) ConfirmOrAbort(save func() error) error {
	if !g.dirty.Load() {
		return nil
	}
	choice := g.prompt.ConfirmUnsaved(unsavedMessage)
	logger.L.Debug("Unsaved changes prompt answered", "choice", choice.String())
	switch choice {
	case ChoiceSave:
		return save()
	case ChoiceDiscard:
		return nil
	default:
		return models.ErrAborted
	}
}
