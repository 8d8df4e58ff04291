package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pen-tool/internal/pen/command"
	"pen-tool/internal/pen/document"
	"pen-tool/internal/pen/store"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

var ErrUnknownSession = errors.New("unknown session")

// DocumentStore keeps encoded documents by name.
type DocumentStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// ============================================================
// Session
// ============================================================

// Session is one editing canvas: a store, its history and a selection.
// All access goes through Do, which serializes callers.
type Session struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu   sync.Mutex
	proc *command.Processor
	opts []store.Option
}

// Do runs fn with exclusive access to the session's processor.
func (s *Session) Do(fn func(p *command.Processor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.proc)
}

// Save encodes the session's drawing and stores it under name.
func (s *Session) Save(ctx context.Context, dst DocumentStore, name string) error {
	var data []byte
	err := s.Do(func(p *command.Processor) error {
		doc, err := document.Save(p.Store())
		if err != nil {
			return err
		}
		data, err = document.Marshal(doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	if err := dst.Put(ctx, name, data); err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	log.Infof("[SESSION] %s saved as %q (%d bytes)", s.ID, name, len(data))
	return nil
}

// Load replaces the session's drawing with the document stored under
// name. History and selection start over.
func (s *Session) Load(ctx context.Context, src DocumentStore, name string) error {
	data, err := src.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}
	st, err := document.Load(doc, s.opts...)
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}
	return s.Do(func(p *command.Processor) error {
		p.Replace(st)
		log.Infof("[SESSION] %s loaded %q: %d curves", s.ID, name, st.Len())
		return nil
	})
}

// ============================================================
// Session Manager
// ============================================================

type SessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	opts     []store.Option
}

// NewSessionManager creates sessions whose stores use opts.
func NewSessionManager(opts ...store.Option) *SessionManager {
	return &SessionManager{
		sessions: make(map[uuid.UUID]*Session),
		opts:     opts,
	}
}

func (m *SessionManager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		proc:      command.NewProcessor(store.New(m.opts...)),
		opts:      m.opts,
	}
	m.sessions[s.ID] = s
	return s
}

func (m *SessionManager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

func (m *SessionManager) Close(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns the open sessions, oldest first.
func (m *SessionManager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
