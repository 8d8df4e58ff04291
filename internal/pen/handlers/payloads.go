package handlers

import (
	"encoding/json"
	"fmt"

	"pen-tool/internal/pen/command"
	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
	"pen-tool/internal/pen/group"
	"pen-tool/internal/pen/history"

	"github.com/google/uuid"
)

// ============================================================
// Requests
// ============================================================

type spawnRequest struct {
	ID        curve.ID         `json:"id"`
	Positions *curve.Positions `json:"positions"`
	Color     string           `json:"color"`
}

type moveRequest struct {
	Anchor curve.Anchor `json:"anchor"`
	To     *geom.Vec2   `json:"to"`
}

type latchRequest struct {
	A curve.CurveEdge `json:"a"`
	B curve.CurveEdge `json:"b"`
}

type selectionRequest struct {
	IDs []curve.ID `json:"ids"`
}

// commandRequest is one entry of a batch. Type picks the command; the
// other fields are read as that command needs them.
type commandRequest struct {
	Type      string           `json:"type"`
	ID        curve.ID         `json:"id"`
	Positions *curve.Positions `json:"positions"`
	Color     string           `json:"color"`
	Anchor    curve.Anchor     `json:"anchor"`
	To        *geom.Vec2       `json:"to"`
	A         *curve.CurveEdge `json:"a"`
	B         *curve.CurveEdge `json:"b"`
}

func (r commandRequest) toCommand() (command.Command, error) {
	switch r.Type {
	case command.Spawn{}.Name():
		if r.Positions == nil {
			return nil, badRequest("spawn: positions required")
		}
		return command.Spawn{ID: r.ID, Positions: *r.Positions, Color: r.Color}, nil
	case command.MoveAnchor{}.Name():
		if r.ID == uuid.Nil || r.To == nil {
			return nil, badRequest("move_anchor: id and to required")
		}
		return command.MoveAnchor{ID: r.ID, Anchor: r.Anchor, To: *r.To}, nil
	case command.Latch{}.Name():
		if r.A == nil || r.B == nil {
			return nil, badRequest("latch: a and b required")
		}
		return command.Latch{A: *r.A, B: *r.B}, nil
	case command.Unlatch{}.Name():
		if r.A == nil || r.B == nil {
			return nil, badRequest("unlatch: a and b required")
		}
		return command.Unlatch{A: *r.A, B: *r.B}, nil
	case command.Delete{}.Name():
		if r.ID == uuid.Nil {
			return nil, badRequest("delete: id required")
		}
		return command.Delete{ID: r.ID}, nil
	case command.Undo{}.Name():
		return command.Undo{}, nil
	case command.Redo{}.Name():
		return command.Redo{}, nil
	}
	return nil, badRequest(fmt.Sprintf("unknown command type %q", r.Type))
}

func decode(body []byte, v any) error {
	if len(body) == 0 {
		return badRequest("empty body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest("invalid json: " + err.Error())
	}
	return nil
}

// ============================================================
// Responses
// ============================================================

type resultPayload struct {
	Command string         `json:"command"`
	Status  command.Status `json:"status"`
	ID      string         `json:"id,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func mapResult(r command.Result) resultPayload {
	p := resultPayload{Command: r.Command.Name(), Status: r.Status}
	if r.ID != uuid.Nil {
		p.ID = r.ID.String()
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
	}
	return p
}

type curvePayload struct {
	*curve.Bezier
	PathLength  float64   `json:"path_length"`
	BoundingBox geom.Rect `json:"bounding_box"`
}

func mapCurve(b *curve.Bezier) curvePayload {
	return curvePayload{Bezier: b, PathLength: b.PathLength(), BoundingBox: b.BoundingBox()}
}

type groupPayload struct {
	ID           uuid.UUID  `json:"id"`
	Curves       []curve.ID `json:"curves"`
	Closed       bool       `json:"closed"`
	PathLength   float64    `json:"path_length"`
	CenterOfMass geom.Vec2  `json:"center_of_mass"`
	BoundingBox  geom.Rect  `json:"bounding_box"`
}

func mapGroup(g *group.Group) groupPayload {
	return groupPayload{
		ID:           g.ID,
		Curves:       g.IDs(),
		Closed:       g.Closed,
		PathLength:   g.PathLength(),
		CenterOfMass: g.CenterOfMass(),
		BoundingBox:  g.BoundingBox(),
	}
}

type samplePayload struct {
	Fraction float64   `json:"t"`
	Position geom.Vec2 `json:"position"`
	Normal   geom.Vec2 `json:"normal"`
}

type historyEntry struct {
	Kind   history.Kind   `json:"kind"`
	Action history.Action `json:"action"`
	Undone bool           `json:"undone"`
}

func mapHistory(l *history.Log) historyPayload {
	actions := l.Actions()
	entries := make([]historyEntry, len(actions))
	for i, a := range actions {
		entries[i] = historyEntry{Kind: a.Kind(), Action: a, Undone: i >= l.Index()}
	}
	return historyPayload{Index: l.Index(), Actions: entries}
}

type historyPayload struct {
	Index   int            `json:"index"`
	Actions []historyEntry `json:"actions"`
}
