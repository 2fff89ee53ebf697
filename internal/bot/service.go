package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"namesmith/internal/domain"
	"namesmith/internal/export"
	"namesmith/internal/pipeline"
	"namesmith/internal/storage"
)

// ErrGenerationInFlight is returned when a user asks for a new batch while
// the previous one is still being generated.
var ErrGenerationInFlight = errors.New("a generation is already running")

// Generator produces a batch of candidates.
type Generator interface {
	Generate(ctx context.Context, params domain.Params) (pipeline.Batch, error)
}

// userSlot serializes one user's transitions. refs counts the callers
// holding the slot and is guarded by Service.mu; the slot is dropped from the
// map when it reaches zero.
type userSlot struct {
	mu         sync.Mutex
	generating atomic.Bool
	refs       int
}

// Service owns every user's state transitions. Transitions for one user are
// serialized: load, apply a pure transition, save.
type Service struct {
	repo     storage.Repository
	gen      Generator
	renderer export.Renderer
	log      logrus.FieldLogger

	mu    sync.Mutex
	users map[int64]*userSlot
}

// NewService creates a Service. renderer may be nil, in which case PDF
// exports are sent as text documents.
func NewService(repo storage.Repository, gen Generator, renderer export.Renderer, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		gen:      gen,
		renderer: renderer,
		log:      logger.WithField("component", "service"),
		users:    make(map[int64]*userSlot),
	}
}

// acquire returns the user's slot, creating it if needed. Every acquire must
// be paired with a release.
func (s *Service) acquire(userID int64) *userSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = &userSlot{}
		s.users[userID] = u
	}
	u.refs++
	return u
}

func (s *Service) release(userID int64, u *userSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.refs--
	if u.refs == 0 {
		delete(s.users, userID)
	}
}

func (s *Service) update(ctx context.Context, userID int64, fn func(domain.State) (domain.State, error)) (domain.State, error) {
	u := s.acquire(userID)
	defer s.release(userID, u)
	u.mu.Lock()
	defer u.mu.Unlock()

	current, err := s.repo.LoadState(ctx, userID)
	if err != nil {
		return domain.State{}, err
	}
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	if err := s.repo.SaveState(ctx, userID, next); err != nil {
		return current, err
	}
	return next, nil
}

// State returns the user's current state.
func (s *Service) State(ctx context.Context, userID int64) (domain.State, error) {
	u := s.acquire(userID)
	defer s.release(userID, u)
	u.mu.Lock()
	defer u.mu.Unlock()
	return s.repo.LoadState(ctx, userID)
}

// Generate runs the pipeline and merges a non-empty batch into the user's
// history. A failed generation leaves the history untouched.
func (s *Service) Generate(ctx context.Context, userID int64, params domain.Params) (pipeline.Batch, error) {
	// The slot is held for the whole run so a concurrent call sees the flag.
	u := s.acquire(userID)
	defer s.release(userID, u)
	if !u.generating.CompareAndSwap(false, true) {
		return pipeline.Batch{}, ErrGenerationInFlight
	}
	defer u.generating.Store(false)

	log := s.log.WithField("user_id", userID)
	batch, err := s.gen.Generate(ctx, params)
	if err != nil {
		log.WithError(err).Warn("Generation failed")
		return pipeline.Batch{}, err
	}
	if len(batch.Candidates) == 0 {
		return batch, nil
	}

	if _, err := s.update(ctx, userID, func(st domain.State) (domain.State, error) {
		return st.WithBatch(batch.Candidates), nil
	}); err != nil {
		return pipeline.Batch{}, fmt.Errorf("failed to store generated names: %w", err)
	}
	return batch, nil
}

// mutate resolves ref against the current state, applies op and returns the
// affected candidate as it looks afterwards (or before, if it was deleted).
func (s *Service) mutate(ctx context.Context, userID int64, ref string, op func(domain.State, string) (domain.State, error)) (domain.Candidate, error) {
	var affected domain.Candidate
	_, err := s.update(ctx, userID, func(st domain.State) (domain.State, error) {
		id, err := st.Resolve(ref)
		if err != nil {
			return st, err
		}
		affected, _, _ = st.Find(id)
		next, err := op(st, id)
		if err != nil {
			return st, err
		}
		if c, _, err := next.Find(id); err == nil {
			affected = c
		}
		return next, nil
	})
	return affected, err
}

func (s *Service) ToggleFavorite(ctx context.Context, userID int64, ref string) (domain.Candidate, error) {
	return s.mutate(ctx, userID, ref, domain.State.ToggleFavorite)
}

func (s *Service) Archive(ctx context.Context, userID int64, ref string) (domain.Candidate, error) {
	return s.mutate(ctx, userID, ref, domain.State.Archive)
}

func (s *Service) Restore(ctx context.Context, userID int64, ref string) (domain.Candidate, error) {
	return s.mutate(ctx, userID, ref, domain.State.Restore)
}

func (s *Service) Delete(ctx context.Context, userID int64, ref string) (domain.Candidate, error) {
	return s.mutate(ctx, userID, ref, domain.State.Delete)
}

func (s *Service) Rate(ctx context.Context, userID int64, ref string, rating int, comment string) (domain.Candidate, error) {
	return s.mutate(ctx, userID, ref, func(st domain.State, id string) (domain.State, error) {
		return st.Rate(id, rating, comment)
	})
}

func (s *Service) SetDarkMode(ctx context.Context, userID int64, on bool) error {
	_, err := s.update(ctx, userID, func(st domain.State) (domain.State, error) {
		return st.SetDarkMode(on), nil
	})
	return err
}

// Reset forgets everything stored for the user.
func (s *Service) Reset(ctx context.Context, userID int64) error {
	u := s.acquire(userID)
	defer s.release(userID, u)
	u.mu.Lock()
	defer u.mu.Unlock()
	return s.repo.DeleteState(ctx, userID)
}

// Document is a rendered export ready to be sent.
type Document struct {
	Filename string
	Data     []byte
}

// Export renders the user's active (or archived) candidates. PDF output goes
// through the renderer when one is configured and falls back to the text
// document otherwise.
func (s *Service) Export(ctx context.Context, userID int64, format export.Format, archived bool) (Document, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	list, base := st.GeneratedNames, "names"
	if archived {
		list, base = st.ArchivedNames, "archived-names"
	}

	if format == export.FormatPDF && s.renderer != nil {
		data, err := s.renderer.RenderPDF(ctx, list)
		if err == nil {
			return Document{Filename: base + ".pdf", Data: data}, nil
		}
		s.log.WithError(err).WithField("user_id", userID).Warn("PDF rendering failed, sending text document")
	}

	data, err := export.Export(list, format)
	if err != nil {
		return Document{}, err
	}
	return Document{Filename: base + format.Extension(), Data: data}, nil
}
