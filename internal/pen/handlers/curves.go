package handlers

import (
	"strconv"

	"pen-tool/internal/pen/command"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Curves
// ============================================================

func (h *PenHandler) ListCurves(c fiber.Ctx) error {
	return h.withSession(c, func(p *command.Processor) error {
		curves := p.Store().Curves()
		out := make([]curvePayload, len(curves))
		for i, b := range curves {
			out[i] = mapCurve(b)
		}
		return c.JSON(out)
	})
}

// SpawnCurve creates a curve from explicit positions. A zero id asks the
// server to pick one.
func (h *PenHandler) SpawnCurve(c fiber.Ctx) error {
	var req spawnRequest
	if err := decode(c.Body(), &req); err != nil {
		return fail(c, err)
	}
	if req.Positions == nil {
		return fail(c, badRequest("positions required"))
	}
	return h.apply(c, command.Spawn{ID: req.ID, Positions: *req.Positions, Color: req.Color})
}

func (h *PenHandler) GetCurve(c fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	return h.withSession(c, func(p *command.Processor) error {
		b, err := p.Store().Curve(id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(mapCurve(b))
	})
}

func (h *PenHandler) DeleteCurve(c fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	return h.apply(c, command.Delete{ID: id})
}

func (h *PenHandler) MoveAnchor(c fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req moveRequest
	if err := decode(c.Body(), &req); err != nil {
		return fail(c, err)
	}
	if req.To == nil {
		return fail(c, badRequest("to required"))
	}
	return h.apply(c, command.MoveAnchor{ID: id, Anchor: req.Anchor, To: *req.To})
}

// SampleCurve returns the point and normal at arc-length fraction ?t=.
func (h *PenHandler) SampleCurve(c fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	t, err := fraction(c)
	if err != nil {
		return fail(c, err)
	}
	return h.withSession(c, func(p *command.Processor) error {
		b, err := p.Store().Curve(id)
		if err != nil {
			return fail(c, err)
		}
		b.RecomputeLUTIfDirty()
		return c.JSON(samplePayload{
			Fraction: t,
			Position: b.PositionAtFraction(t),
			Normal:   b.NormalAtFraction(t),
		})
	})
}

func (h *PenHandler) Latch(c fiber.Ctx) error {
	var req latchRequest
	if err := decode(c.Body(), &req); err != nil {
		return fail(c, err)
	}
	return h.apply(c, command.Latch{A: req.A, B: req.B})
}

func (h *PenHandler) Unlatch(c fiber.Ctx) error {
	var req latchRequest
	if err := decode(c.Body(), &req); err != nil {
		return fail(c, err)
	}
	return h.apply(c, command.Unlatch{A: req.A, B: req.B})
}

// ============================================================
// Selection
// ============================================================

func (h *PenHandler) GetSelection(c fiber.Ctx) error {
	return h.withSession(c, func(p *command.Processor) error {
		return c.JSON(selectionRequest{IDs: p.Selection().IDs()})
	})
}

// SetSelection replaces the selection. Unknown ids are rejected.
func (h *PenHandler) SetSelection(c fiber.Ctx) error {
	var req selectionRequest
	if err := decode(c.Body(), &req); err != nil {
		return fail(c, err)
	}
	return h.withSession(c, func(p *command.Processor) error {
		for _, id := range req.IDs {
			if _, err := p.Store().Curve(id); err != nil {
				return fail(c, err)
			}
		}
		p.Selection().Set(req.IDs...)
		return c.JSON(selectionRequest{IDs: p.Selection().IDs()})
	})
}

// ============================================================
// Groups
// ============================================================

func (h *PenHandler) ListGroups(c fiber.Ctx) error {
	return h.withSession(c, func(p *command.Processor) error {
		p.Store().Recompute()
		groups := p.Store().Groups()
		out := make([]groupPayload, len(groups))
		for i, g := range groups {
			out[i] = mapGroup(g)
		}
		return c.JSON(out)
	})
}

// GroupSelection groups the selected curves.
func (h *PenHandler) GroupSelection(c fiber.Ctx) error {
	return h.withSession(c, func(p *command.Processor) error {
		g, err := p.GroupSelection()
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(mapGroup(g))
	})
}

func (h *PenHandler) GetGroup(c fiber.Ctx) error {
	gid, err := parseUUID(c, "gid")
	if err != nil {
		return fail(c, err)
	}
	return h.withSession(c, func(p *command.Processor) error {
		p.Store().Recompute()
		g, err := p.Store().GroupByID(gid)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(mapGroup(g))
	})
}

func (h *PenHandler) Ungroup(c fiber.Ctx) error {
	gid, err := parseUUID(c, "gid")
	if err != nil {
		return fail(c, err)
	}
	return h.withSession(c, func(p *command.Processor) error {
		if err := p.Ungroup(gid); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// SampleGroup returns the point and normal at fraction ?t= of the
// group's total length.
func (h *PenHandler) SampleGroup(c fiber.Ctx) error {
	gid, err := parseUUID(c, "gid")
	if err != nil {
		return fail(c, err)
	}
	t, err := fraction(c)
	if err != nil {
		return fail(c, err)
	}
	return h.withSession(c, func(p *command.Processor) error {
		p.Store().Recompute()
		g, err := p.Store().GroupByID(gid)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(samplePayload{
			Fraction: t,
			Position: g.PositionAtFraction(t),
			Normal:   g.NormalAtFraction(t),
		})
	})
}

// fraction reads ?t=, defaulting to 0. The samplers wrap values outside
// [0, 1].
func fraction(c fiber.Ctx) (float64, error) {
	raw := c.Query("t")
	if raw == "" {
		return 0, nil
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("invalid t: " + raw)
	}
	return t, nil
}
