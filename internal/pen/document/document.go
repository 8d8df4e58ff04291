package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/group"
	"pen-tool/internal/pen/store"
)

// Version is the document format written by Save.
const Version = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported document version")
	ErrBrokenLatch        = errors.New("latch is not mirrored by its partner")
	ErrNotFound           = errors.New("document not found")
)

// Document is the persisted form of a store: every curve in spawn order
// and every group with its merged LUT.
type Document struct {
	Version int             `json:"version"`
	Curves  []*curve.Bezier `json:"curves"`
	Groups  []*group.Group  `json:"groups"`
}

// ============================================================
// Save / Load
// ============================================================

// Save snapshots s. LUTs are brought up to date first.
func Save(s *store.Store) (*Document, error) {
	s.Recompute()

	doc := &Document{
		Version: Version,
		Curves:  make([]*curve.Bezier, 0, s.Len()),
		Groups:  []*group.Group{},
	}
	for _, b := range s.Curves() {
		c, err := b.Clone()
		if err != nil {
			return nil, err
		}
		doc.Curves = append(doc.Curves, c)
	}
	for _, g := range s.Groups() {
		cp := *g
		cp.Members = append([]group.Member(nil), g.Members...)
		doc.Groups = append(doc.Groups, &cp)
	}
	return doc, nil
}

// Load builds a new store from doc. Positions are restored as saved.
// Latches must be stored on both sides and every group must still form
// one chain; otherwise nothing is returned.
func Load(doc *Document, opts ...store.Option) (*store.Store, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	if err := checkMirrored(doc.Curves); err != nil {
		return nil, err
	}

	s := store.New(opts...)
	for _, c := range doc.Curves {
		if _, err := s.Place(c.ID, c.Positions, c.Color); err != nil {
			return nil, fmt.Errorf("load curve: %w", err)
		}
	}
	for _, c := range doc.Curves {
		for _, l := range c.LatchList() {
			self := curve.CurveEdge{ID: c.ID, Edge: l.SelfEdge}
			if _, ok := s.Partner(self); ok {
				continue
			}
			if err := s.Latch(self, curve.CurveEdge{ID: l.LatchedTo, Edge: l.PartnerEdge}); err != nil {
				return nil, fmt.Errorf("load latch %s: %w", self, err)
			}
		}
	}
	if err := s.CheckLatches(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	for _, g := range doc.Groups {
		ids := make([]curve.ID, 0, len(g.Members))
		for _, m := range g.Members {
			ids = append(ids, m.CurveID)
		}
		if _, err := s.GroupAs(g.ID, ids); err != nil {
			return nil, fmt.Errorf("load group %s: %w", g.ID, err)
		}
	}
	s.Recompute()
	return s, nil
}

func checkMirrored(curves []*curve.Bezier) error {
	byID := make(map[curve.ID]*curve.Bezier, len(curves))
	for _, c := range curves {
		byID[c.ID] = c
	}
	for _, c := range curves {
		for e, l := range c.Latches {
			if l.SelfEdge != e {
				return fmt.Errorf("%w: %s/%s claims edge %s", ErrBrokenLatch, c.ID, e, l.SelfEdge)
			}
			partner, ok := byID[l.LatchedTo]
			if !ok {
				return fmt.Errorf("%w: %s/%s: %w: %s", ErrBrokenLatch, c.ID, e, curve.ErrUnknownCurveID, l.LatchedTo)
			}
			if back, ok := partner.LatchAt(l.PartnerEdge); !ok || back != l.Mirror(c.ID) {
				return fmt.Errorf("%w: %s/%s -> %s/%s", ErrBrokenLatch, c.ID, e, l.LatchedTo, l.PartnerEdge)
			}
		}
	}
	return nil
}

// ============================================================
// Encoding
// ============================================================

func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &doc, nil
}
