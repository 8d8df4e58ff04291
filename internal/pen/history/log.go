package history

import (
	"errors"
	"fmt"

	"pen-tool/internal/pen/store"

	"github.com/gofiber/fiber/v3/log"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// ============================================================
// Log
// ============================================================

// Log is a linear undo history. Actions before index are applied, the
// rest form the redo tail.
type Log struct {
	actions []Action
	index   int
}

func NewLog() *Log {
	return &Log{}
}

// Push records an applied action and drops the redo tail.
func (l *Log) Push(a Action) {
	l.actions = append(l.actions[:l.index], a)
	l.index = len(l.actions)
}

// Undo reverts the action before the cursor. The cursor only moves when
// the revert succeeds.
func (l *Log) Undo(s *store.Store) (Action, error) {
	if l.index == 0 {
		log.Info("[HISTORY] nothing to undo")
		return nil, ErrNothingToUndo
	}
	a := l.actions[l.index-1]
	if err := a.Undo(s); err != nil {
		return a, fmt.Errorf("undo %s: %w", a.Kind(), err)
	}
	l.index--
	log.Debugf("[HISTORY] undid %s, index %d/%d", a.Kind(), l.index, len(l.actions))
	return a, nil
}

// Redo reapplies the action at the cursor.
func (l *Log) Redo(s *store.Store) (Action, error) {
	if l.index == len(l.actions) {
		log.Info("[HISTORY] nothing to redo")
		return nil, ErrNothingToRedo
	}
	a := l.actions[l.index]
	if err := a.Redo(s); err != nil {
		return a, fmt.Errorf("redo %s: %w", a.Kind(), err)
	}
	l.index++
	log.Debugf("[HISTORY] redid %s, index %d/%d", a.Kind(), l.index, len(l.actions))
	return a, nil
}

// Reset forgets every action.
func (l *Log) Reset() {
	l.actions = nil
	l.index = 0
}

func (l *Log) Len() int {
	return len(l.actions)
}

func (l *Log) Index() int {
	return l.index
}

func (l *Log) CanUndo() bool {
	return l.index > 0
}

func (l *Log) CanRedo() bool {
	return l.index < len(l.actions)
}

// Actions returns the recorded actions, oldest first.
func (l *Log) Actions() []Action {
	return append([]Action(nil), l.actions...)
}
