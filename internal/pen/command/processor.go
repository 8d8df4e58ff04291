package command

import (
	"errors"
	"fmt"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
	"pen-tool/internal/pen/group"
	"pen-tool/internal/pen/history"
	"pen-tool/internal/pen/store"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

// ============================================================
// Processor
// ============================================================

// Processor applies commands to one store in FIFO order and keeps the
// undo history. It is not safe for concurrent use.
type Processor struct {
	store     *store.Store
	history   *history.Log
	selection *Selection
	queue     []Command
}

func NewProcessor(s *store.Store) *Processor {
	return &Processor{
		store:     s,
		history:   history.NewLog(),
		selection: &Selection{},
	}
}

func (p *Processor) Store() *store.Store {
	return p.store
}

func (p *Processor) History() *history.Log {
	return p.history
}

func (p *Processor) Selection() *Selection {
	return p.selection
}

// Replace swaps in a new store, typically a freshly loaded document.
// History, selection and queue start over.
func (p *Processor) Replace(s *store.Store) {
	p.store = s
	p.history.Reset()
	p.selection.Clear()
	p.queue = nil
}

// Enqueue appends commands to the pending queue.
func (p *Processor) Enqueue(cmds ...Command) {
	p.queue = append(p.queue, cmds...)
}

func (p *Processor) Pending() int {
	return len(p.queue)
}

// Process drains the queue in order. A failing command is reported in
// its Result and the rest of the queue still runs. Curve LUTs and groups
// are brought up to date once the queue is empty.
func (p *Processor) Process() []Result {
	results := make([]Result, 0, len(p.queue))
	for len(p.queue) > 0 {
		c := p.queue[0]
		p.queue = p.queue[1:]
		results = append(results, p.apply(c))
	}
	p.queue = nil
	p.store.Recompute()
	return results
}

// Apply runs a single command right away, ahead of anything queued.
func (p *Processor) Apply(c Command) Result {
	r := p.apply(c)
	p.store.Recompute()
	return r
}

func (p *Processor) apply(c Command) Result {
	r := p.dispatch(c)
	r.Command = c
	switch r.Status {
	case StatusFailed:
		log.Warnf("[PEN] %s failed: %v", c.Name(), r.Err)
	case StatusNoop:
		log.Infof("[PEN] %s skipped: %v", c.Name(), r.Err)
	default:
		log.Debugf("[PEN] %s %s", c.Name(), r.Status)
	}
	p.selection.keep(p.store.Has)
	return r
}

func (p *Processor) dispatch(c Command) Result {
	switch c := c.(type) {
	case Spawn:
		return p.spawn(c)
	case MoveAnchor:
		return p.moveAnchor(c)
	case Latch:
		return p.record(c.A.ID, p.store.Latch(c.A, c.B), history.Latched{A: c.A, B: c.B})
	case Unlatch:
		err := p.store.Unlatch(c.A, c.B)
		if errors.Is(err, store.ErrNotLatched) {
			return Result{Status: StatusNoop, ID: c.A.ID, Err: err}
		}
		return p.record(c.A.ID, err, history.Unlatched{A: c.A, B: c.B})
	case Delete:
		return p.delete(c)
	case Undo:
		return p.step(p.history.Undo, history.ErrNothingToUndo)
	case Redo:
		return p.step(p.history.Redo, history.ErrNothingToRedo)
	default:
		return Result{Status: StatusFailed, Err: fmt.Errorf("unknown command %T", c)}
	}
}

func (p *Processor) record(id curve.ID, err error, a history.Action) Result {
	if err != nil {
		return Result{Status: StatusFailed, ID: id, Err: err}
	}
	p.history.Push(a)
	return Result{Status: StatusRecorded, ID: id}
}

func (p *Processor) spawn(c Spawn) Result {
	b, err := p.store.Spawn(c.ID, c.Positions, c.Color)
	if err != nil {
		return Result{Status: StatusFailed, ID: c.ID, Err: err}
	}
	snapshot, err := b.Clone()
	if err != nil {
		if _, rerr := p.store.Remove(b.ID); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return Result{Status: StatusFailed, ID: b.ID, Err: err}
	}
	return p.record(b.ID, nil, history.SpawnedCurve{Curve: snapshot})
}

func (p *Processor) moveAnchor(c MoveAnchor) Result {
	changes, err := p.store.MoveAnchor(c.ID, c.Anchor, c.To)
	if err != nil {
		return Result{Status: StatusFailed, ID: c.ID, Err: err}
	}
	own := changes[0]
	return p.record(c.ID, nil, history.MovedAnchor{
		BezierID:         c.ID,
		Anchor:           c.Anchor,
		PreviousPosition: own.Before.At(c.Anchor),
		NewPosition:      own.After.At(c.Anchor),
		Changes:          changes,
	})
}

func (p *Processor) delete(c Delete) Result {
	var members []curve.ID
	if b, err := p.store.Curve(c.ID); err == nil && b.InGroup() {
		if g, err := p.store.GroupByID(b.Group); err == nil {
			members = g.IDs()
		}
	}
	snapshot, err := p.store.Remove(c.ID)
	if err != nil {
		return Result{Status: StatusFailed, ID: c.ID, Err: err}
	}
	return p.record(c.ID, nil, history.DeletedCurve{Curve: snapshot, Group: members})
}

func (p *Processor) step(fn func(*store.Store) (history.Action, error), boundary error) Result {
	_, err := fn(p.store)
	switch {
	case errors.Is(err, boundary):
		return Result{Status: StatusNoop, Err: err}
	case err != nil:
		return Result{Status: StatusFailed, Err: err}
	}
	return Result{Status: StatusApplied}
}

// ============================================================
// Direct calls
// ============================================================

// Spawn adds a curve with a fresh id and returns it.
func (p *Processor) Spawn(positions curve.Positions, color string) (curve.ID, error) {
	r := p.Apply(Spawn{Positions: positions, Color: color})
	return r.ID, failure(r)
}

func (p *Processor) MoveAnchor(id curve.ID, a curve.Anchor, to geom.Vec2) error {
	return failure(p.Apply(MoveAnchor{ID: id, Anchor: a, To: to}))
}

func (p *Processor) Latch(a, b curve.CurveEdge) error {
	return failure(p.Apply(Latch{A: a, B: b}))
}

// Unlatch of edges that are not latched is a no-op and returns nil.
func (p *Processor) Unlatch(a, b curve.CurveEdge) error {
	return failure(p.Apply(Unlatch{A: a, B: b}))
}

func (p *Processor) Delete(id curve.ID) error {
	return failure(p.Apply(Delete{ID: id}))
}

// Undo reports whether a step was undone.
func (p *Processor) Undo() (bool, error) {
	r := p.Apply(Undo{})
	return r.Status == StatusApplied, failure(r)
}

// Redo reports whether a step was redone.
func (p *Processor) Redo() (bool, error) {
	r := p.Apply(Redo{})
	return r.Status == StatusApplied, failure(r)
}

func failure(r Result) error {
	if r.Failed() {
		return r.Err
	}
	return nil
}

// ============================================================
// Groups
// ============================================================

// GroupSelection builds a group from the selected curves.
func (p *Processor) GroupSelection() (*group.Group, error) {
	if p.selection.Len() == 0 {
		return nil, group.ErrEmptySelection
	}
	g, err := p.store.Group(p.selection.IDs())
	if err != nil {
		return nil, err
	}
	p.store.Recompute()
	log.Debugf("[PEN] grouped %d curves as %s", g.Len(), g.ID)
	return g, nil
}

func (p *Processor) Ungroup(gid uuid.UUID) error {
	return p.store.Ungroup(gid)
}
