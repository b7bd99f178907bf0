package ticket

import (
	"context"
	"strings"
	"sync"
	"time"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// MemoryStore keeps tickets in a map. Callers always get copies.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	now     func() time.Time
}

var _ port.TicketStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store holding seed.
func NewMemoryStore(seed []domain.Ticket) *MemoryStore {
	s := &MemoryStore{
		tickets: make(map[string]domain.Ticket, len(seed)),
		now:     time.Now,
	}
	for _, t := range seed {
		s.tickets[t.ID] = cloneTicket(t)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	t = cloneTicket(t)
	return &t, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.filter(func(domain.Ticket) bool { return true }), nil
}

func (s *MemoryStore) Create(ctx context.Context, t domain.Ticket) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	created, err := prepareNew(t, nextID(ids), s.now())
	if err != nil {
		return nil, err
	}
	s.tickets[created.ID] = created
	out := cloneTicket(created)
	return &out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id, status string) error {
	if err := checkStatus(status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return notFound(id)
	}
	t.Status = status
	s.tickets[id] = t
	return nil
}

func (s *MemoryStore) AddNote(ctx context.Context, id, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return notFound(id)
	}
	t.Notes = append(cloneTicket(t).Notes, domain.TicketNote{Timestamp: s.now(), Text: note})
	s.tickets[id] = t
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query string) ([]domain.Ticket, error) {
	return s.filter(func(t domain.Ticket) bool { return matchesQuery(t, query) }), nil
}

func (s *MemoryStore) ListByCustomer(ctx context.Context, customer string) ([]domain.Ticket, error) {
	return s.filter(func(t domain.Ticket) bool { return strings.EqualFold(t.Customer, customer) }), nil
}

func (s *MemoryStore) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	return s.filter(func(t domain.Ticket) bool { return t.Status == domain.TicketOpen }), nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) filter(keep func(domain.Ticket) bool) []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if keep(t) {
			out = append(out, cloneTicket(t))
		}
	}
	sortByID(out)
	return out
}
