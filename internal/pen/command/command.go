package command

import (
	"fmt"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
)

// Command is a structural edit or a history step queued on a Processor.
type Command interface {
	Name() string
}

type Spawn struct {
	ID        curve.ID        `json:"id"`
	Positions curve.Positions `json:"positions"`
	Color     string          `json:"color,omitempty"`
}

type MoveAnchor struct {
	ID     curve.ID     `json:"id"`
	Anchor curve.Anchor `json:"anchor"`
	To     geom.Vec2    `json:"to"`
}

type Latch struct {
	A curve.CurveEdge `json:"a"`
	B curve.CurveEdge `json:"b"`
}

type Unlatch struct {
	A curve.CurveEdge `json:"a"`
	B curve.CurveEdge `json:"b"`
}

type Delete struct {
	ID curve.ID `json:"id"`
}

type Undo struct{}

type Redo struct{}

func (Spawn) Name() string      { return "spawn" }
func (MoveAnchor) Name() string { return "move_anchor" }
func (Latch) Name() string      { return "latch" }
func (Unlatch) Name() string    { return "unlatch" }
func (Delete) Name() string     { return "delete" }
func (Undo) Name() string       { return "undo" }
func (Redo) Name() string       { return "redo" }

// ============================================================
// Results
// ============================================================

type Status string

const (
	// StatusRecorded: the store changed and one history action was pushed.
	StatusRecorded Status = "recorded"
	// StatusApplied: an undo or redo moved the history cursor.
	StatusApplied Status = "applied"
	// StatusNoop: nothing to do, nothing changed.
	StatusNoop   Status = "noop"
	StatusFailed Status = "failed"
)

// Result reports what happened to one command. Err holds the reason for
// failed and no-op commands.
type Result struct {
	Command Command
	Status  Status
	ID      curve.ID
	Err     error
}

func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", r.Command.Name(), r.Status, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Command.Name(), r.Status)
}
