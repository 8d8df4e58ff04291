package handlers

import (
	"bytes"
	"io"
	"strings"

	"pen-tool/internal/pen/command"
	"pen-tool/internal/pen/document"
	"pen-tool/internal/pen/mapper"
	"pen-tool/internal/pen/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// SVG import / export
// ============================================================

// ImportSVG adds the paths of an SVG document to the session. The SVG is
// either the raw body or the "file" field of a multipart form.
func (h *PenHandler) ImportSVG(c fiber.Ctx) error {
	data, err := uploadedSVG(c)
	if err != nil {
		return fail(c, err)
	}
	log.Infof("[PEN] import: %d bytes", len(data))

	return h.withSession(c, func(p *command.Processor) error {
		report, err := mapper.NewImporter(p).Import(bytes.NewReader(data))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(report)
	})
}

func uploadedSVG(c fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if len(c.Body()) == 0 {
			return nil, badRequest("svg body required")
		}
		return c.Body(), nil
	}

	file, err := c.FormFile("file")
	if err != nil {
		return nil, badRequest("file required in multipart/form-data")
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *PenHandler) ExportSVG(c fiber.Ctx) error {
	return h.withSession(c, func(p *command.Processor) error {
		svg, err := h.renderer.Render(p.Store())
		if err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, "image/svg+xml")
		return c.SendString(svg)
	})
}

// ExportDocument returns the session's drawing in document form.
func (h *PenHandler) ExportDocument(c fiber.Ctx) error {
	return h.withSession(c, func(p *command.Processor) error {
		doc, err := document.Save(p.Store())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(doc)
	})
}

// ============================================================
// Persistence
// ============================================================

// Save stores the session's drawing as ?name= in ?backend=.
func (h *PenHandler) Save(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	name, backend, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	if err := s.Save(c.Context(), h.backends[backend], name); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"name": name, "backend": backend})
}

// Load replaces the session's drawing with ?name= from ?backend=.
func (h *PenHandler) Load(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	name, backend, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	if err := s.Load(c.Context(), h.backends[backend], name); err != nil {
		return fail(c, err)
	}
	return s.Do(func(p *command.Processor) error {
		return c.JSON(fiber.Map{"name": name, "backend": backend, "curves": p.Store().Len()})
	})
}

func (h *PenHandler) ListDrawings(c fiber.Ctx) error {
	backend, err := h.backend(c)
	if err != nil {
		return fail(c, err)
	}
	names, err := h.backends[backend].List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"backend": backend, "drawings": names})
}

func (h *PenHandler) DeleteDrawing(c fiber.Ctx) error {
	backend, err := h.backend(c)
	if err != nil {
		return fail(c, err)
	}
	name := c.Params("name")
	if !service.ValidName(name) {
		return fail(c, badRequest("invalid name: "+name))
	}
	if err := h.backends[backend].Delete(c.Context(), name); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PenHandler) target(c fiber.Ctx) (name, backend string, err error) {
	name = c.Query("name")
	if !service.ValidName(name) {
		return "", "", badRequest("invalid name: " + name)
	}
	backend, err = h.backend(c)
	return name, backend, err
}

func (h *PenHandler) backend(c fiber.Ctx) (string, error) {
	backend := c.Query("backend", h.fallback)
	if _, ok := h.backends[backend]; !ok {
		return "", badRequest("unknown backend: " + backend)
	}
	return backend, nil
}
