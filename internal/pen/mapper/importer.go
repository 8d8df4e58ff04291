package mapper

import (
	"fmt"
	"io"

	"pen-tool/internal/pen/command"
	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/parser"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Importer
// ============================================================

// Importer turns SVG paths into curves through a processor, so every
// spawned curve and latch lands in the undo history.
type Importer struct {
	proc *command.Processor
}

func NewImporter(proc *command.Processor) *Importer {
	return &Importer{proc: proc}
}

// ImportReport summarizes one import.
type ImportReport struct {
	Paths   int              `json:"paths"`
	Skipped []string         `json:"skipped,omitempty"`
	Curves  []curve.ID       `json:"curves"`
	Latches int              `json:"latches"`
	Failed  []command.Result `json:"-"`
}

// Import reads an SVG document. Every subpath becomes a chain of curves
// latched end to start; a closed subpath of more than one curve is also
// latched from its last end back to its first start. Paths whose data
// cannot be parsed are skipped and listed in the report.
func (im *Importer) Import(r io.Reader) (*ImportReport, error) {
	paths, err := parser.ParseSVG(r)
	if err != nil {
		return nil, fmt.Errorf("parse SVG: %w", err)
	}

	report := &ImportReport{Paths: len(paths)}
	for _, p := range paths {
		subpaths, err := parser.ParsePath(p.D)
		if err != nil {
			log.Warnf("[IMPORT] skipping path %q: %v", p.ID, err)
			report.Skipped = append(report.Skipped, p.ID)
			continue
		}
		for _, sp := range subpaths {
			im.enqueueChain(sp, p.Color())
		}
	}

	for _, res := range im.proc.Process() {
		if res.Failed() {
			report.Failed = append(report.Failed, res)
			continue
		}
		switch res.Command.(type) {
		case command.Spawn:
			report.Curves = append(report.Curves, res.ID)
		case command.Latch:
			report.Latches++
		}
	}
	if len(report.Failed) > 0 {
		return report, fmt.Errorf("import: %d of %d commands failed, first: %w",
			len(report.Failed), len(report.Curves)+report.Latches+len(report.Failed), report.Failed[0].Err)
	}
	log.Infof("[IMPORT] %d paths -> %d curves, %d latches", report.Paths, len(report.Curves), report.Latches)
	return report, nil
}

func (im *Importer) enqueueChain(sp parser.Subpath, color string) {
	ids := make([]curve.ID, len(sp.Segments))
	for i, seg := range sp.Segments {
		ids[i] = curve.NewID()
		im.proc.Enqueue(command.Spawn{ID: ids[i], Positions: seg, Color: color})
	}
	for i := 1; i < len(ids); i++ {
		im.proc.Enqueue(command.Latch{
			A: curve.CurveEdge{ID: ids[i-1], Edge: curve.EdgeEnd},
			B: curve.CurveEdge{ID: ids[i], Edge: curve.EdgeStart},
		})
	}
	if sp.Closed && len(ids) > 1 {
		im.proc.Enqueue(command.Latch{
			A: curve.CurveEdge{ID: ids[len(ids)-1], Edge: curve.EdgeEnd},
			B: curve.CurveEdge{ID: ids[0], Edge: curve.EdgeStart},
		})
	}
}
