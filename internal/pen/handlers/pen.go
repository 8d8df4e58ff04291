package handlers

import (
	"net/http"

	"pen-tool/internal/pen/command"
	"pen-tool/internal/pen/mapper"
	"pen-tool/internal/pen/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

// ============================================================
// Pen Handler
// ============================================================

type PenHandler struct {
	sessions *service.SessionManager
	backends map[string]service.DocumentStore
	fallback string
	renderer *mapper.Renderer
}

// NewPenHandler serves the sessions of m. Documents are saved to and
// loaded from the named backends; requests without ?backend= use the
// first one given.
func NewPenHandler(m *service.SessionManager, backends ...Backend) *PenHandler {
	h := &PenHandler{
		sessions: m,
		backends: make(map[string]service.DocumentStore, len(backends)),
		renderer: mapper.NewRenderer(),
	}
	for _, b := range backends {
		if h.fallback == "" {
			h.fallback = b.Name
		}
		h.backends[b.Name] = b.Store
	}
	return h
}

// Backend is a named document store.
type Backend struct {
	Name  string
	Store service.DocumentStore
}

// Register mounts every pen route on r.
func (h *PenHandler) Register(r fiber.Router) {
	r.Get("/sessions", h.ListSessions)
	r.Post("/sessions", h.CreateSession)
	r.Delete("/sessions/:sid", h.CloseSession)

	r.Post("/sessions/:sid/commands", h.Commands)
	r.Post("/sessions/:sid/undo", h.Undo)
	r.Post("/sessions/:sid/redo", h.Redo)
	r.Get("/sessions/:sid/history", h.History)

	r.Get("/sessions/:sid/curves", h.ListCurves)
	r.Post("/sessions/:sid/curves", h.SpawnCurve)
	r.Get("/sessions/:sid/curves/:id", h.GetCurve)
	r.Delete("/sessions/:sid/curves/:id", h.DeleteCurve)
	r.Post("/sessions/:sid/curves/:id/move", h.MoveAnchor)
	r.Get("/sessions/:sid/curves/:id/sample", h.SampleCurve)
	r.Post("/sessions/:sid/latch", h.Latch)
	r.Post("/sessions/:sid/unlatch", h.Unlatch)

	r.Get("/sessions/:sid/selection", h.GetSelection)
	r.Put("/sessions/:sid/selection", h.SetSelection)
	r.Get("/sessions/:sid/groups", h.ListGroups)
	r.Post("/sessions/:sid/groups", h.GroupSelection)
	r.Get("/sessions/:sid/groups/:gid", h.GetGroup)
	r.Delete("/sessions/:sid/groups/:gid", h.Ungroup)
	r.Get("/sessions/:sid/groups/:gid/sample", h.SampleGroup)

	r.Post("/sessions/:sid/import", h.ImportSVG)
	r.Get("/sessions/:sid/export", h.ExportSVG)
	r.Get("/sessions/:sid/document", h.ExportDocument)
	r.Post("/sessions/:sid/save", h.Save)
	r.Post("/sessions/:sid/load", h.Load)
	r.Get("/drawings", h.ListDrawings)
	r.Delete("/drawings/:name", h.DeleteDrawing)
}

// ============================================================
// Sessions
// ============================================================

func (h *PenHandler) CreateSession(c fiber.Ctx) error {
	s := h.sessions.Create()
	log.Infof("[PEN] session %s created", s.ID)
	return c.Status(http.StatusCreated).JSON(s)
}

func (h *PenHandler) ListSessions(c fiber.Ctx) error {
	return c.JSON(h.sessions.List())
}

func (h *PenHandler) CloseSession(c fiber.Ctx) error {
	sid, err := parseUUID(c, "sid")
	if err != nil {
		return fail(c, err)
	}
	if err := h.sessions.Close(sid); err != nil {
		return fail(c, err)
	}
	log.Infof("[PEN] session %s closed", sid)
	return c.SendStatus(http.StatusNoContent)
}

// withSession runs fn holding the session named by :sid.
func (h *PenHandler) withSession(c fiber.Ctx, fn func(p *command.Processor) error) error {
	sid, err := parseUUID(c, "sid")
	if err != nil {
		return fail(c, err)
	}
	s, err := h.sessions.Get(sid)
	if err != nil {
		return fail(c, err)
	}
	return s.Do(fn)
}

func (h *PenHandler) session(c fiber.Ctx) (*service.Session, error) {
	sid, err := parseUUID(c, "sid")
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(sid)
}

// ============================================================
// Commands & history
// ============================================================

// Commands runs a batch of commands in order and reports each result.
func (h *PenHandler) Commands(c fiber.Ctx) error {
	var reqs []commandRequest
	if err := decode(c.Body(), &reqs); err != nil {
		return fail(c, err)
	}
	cmds := make([]command.Command, 0, len(reqs))
	for _, r := range reqs {
		cmd, err := r.toCommand()
		if err != nil {
			return fail(c, err)
		}
		cmds = append(cmds, cmd)
	}

	return h.withSession(c, func(p *command.Processor) error {
		p.Enqueue(cmds...)
		results := p.Process()
		out := make([]resultPayload, len(results))
		for i, r := range results {
			out[i] = mapResult(r)
		}
		return c.JSON(fiber.Map{"results": out})
	})
}

func (h *PenHandler) Undo(c fiber.Ctx) error {
	return h.apply(c, command.Undo{})
}

func (h *PenHandler) Redo(c fiber.Ctx) error {
	return h.apply(c, command.Redo{})
}

func (h *PenHandler) History(c fiber.Ctx) error {
	return h.withSession(c, func(p *command.Processor) error {
		return c.JSON(mapHistory(p.History()))
	})
}

// apply runs one command. Failures get the status of their error;
// recorded spawns answer 201.
func (h *PenHandler) apply(c fiber.Ctx, cmd command.Command) error {
	return h.withSession(c, func(p *command.Processor) error {
		r := p.Apply(cmd)
		if r.Failed() {
			return fail(c, r.Err)
		}
		status := http.StatusOK
		if _, ok := cmd.(command.Spawn); ok {
			status = http.StatusCreated
		}
		return c.Status(status).JSON(mapResult(r))
	})
}

func parseUUID(c fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, badRequest("invalid " + param + ": " + c.Params(param))
	}
	return id, nil
}
