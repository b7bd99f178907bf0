package ticket

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newStores(t *testing.T) map[string]port.TicketStore {
	t.Helper()

	mem := NewMemoryStore(SampleTickets())
	mem.now = func() time.Time { return fixedNow }

	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tickets.db"), SampleTickets())
	require.NoError(t, err)
	sq.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { sq.Close() })

	return map[string]port.TicketStore{"memory": mem, "sqlite": sq}
}

func TestTicketStores(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.Get(ctx, "TICKET-001")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Alice Johnson", got.Customer)
			assert.Equal(t, "Cannot access account", got.Title)

			missing, err := s.Get(ctx, "TICKET-999")
			require.NoError(t, err)
			assert.Nil(t, missing)

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "TICKET-001", all[0].ID)

			open, err := s.ListOpen(ctx)
			require.NoError(t, err)
			assert.Len(t, open, 2)

			byCustomer, err := s.ListByCustomer(ctx, "bob smith")
			require.NoError(t, err)
			require.Len(t, byCustomer, 1)
			assert.Equal(t, "TICKET-002", byCustomer[0].ID)

			found, err := s.Search(ctx, "INVOICE")
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "TICKET-003", found[0].ID)

			none, err := s.Search(ctx, "100%_match")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestTicketStores_Create(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := s.Create(ctx, domain.Ticket{
				Title:       "Refund request",
				Description: "Charged twice for March.",
				Customer:    "Dana White",
			})
			require.NoError(t, err)
			assert.Equal(t, "TICKET-004", created.ID)
			assert.Equal(t, domain.TicketOpen, created.Status)
			assert.Equal(t, "medium", created.Priority)
			assert.Equal(t, "general", created.Category)
			assert.Equal(t, "Support Team", created.AssignedTo)
			assert.Equal(t, "2025-03-14", created.CreatedDate)

			fetched, err := s.Get(ctx, "TICKET-004")
			require.NoError(t, err)
			require.NotNil(t, fetched)
			assert.Equal(t, "Dana White", fetched.Customer)

			_, err = s.Create(ctx, domain.Ticket{Title: "x"})
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))

			_, err = s.Create(ctx, domain.Ticket{Title: "x", Customer: "y", Priority: "urgent"})
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestTicketStores_StatusAndNotes(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.UpdateStatus(ctx, "TICKET-001", domain.TicketInProgress))
			got, _ := s.Get(ctx, "TICKET-001")
			assert.Equal(t, domain.TicketInProgress, got.Status)

			err := s.UpdateStatus(ctx, "TICKET-001", "archived")
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))

			err = s.UpdateStatus(ctx, "TICKET-404", domain.TicketClosed)
			assert.True(t, errors.Is(err, domain.ErrNotFound))

			require.NoError(t, s.AddNote(ctx, "TICKET-002", "Asked for crash logs."))
			require.NoError(t, s.AddNote(ctx, "TICKET-002", "Logs received."))
			got, _ = s.Get(ctx, "TICKET-002")
			require.Len(t, got.Notes, 2)
			assert.Equal(t, "Asked for crash logs.", got.Notes[0].Text)
			assert.True(t, got.Notes[1].Timestamp.Equal(fixedNow))

			err = s.AddNote(ctx, "TICKET-404", "nope")
			assert.True(t, errors.Is(err, domain.ErrNotFound))
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore(SampleTickets())
	ctx := context.Background()
	require.NoError(t, s.AddNote(ctx, "TICKET-001", "first"))

	got, _ := s.Get(ctx, "TICKET-001")
	got.Title = "changed"
	got.Notes[0].Text = "changed"

	again, _ := s.Get(ctx, "TICKET-001")
	assert.Equal(t, "Cannot access account", again.Title)
	assert.Equal(t, "first", again.Notes[0].Text)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, SampleTickets())
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, "TICKET-003", domain.TicketClosed))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, SampleTickets())
	require.NoError(t, err)
	defer s.Close()

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "seed must not be re-applied")

	got, err := s.Get(ctx, "TICKET-003")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketClosed, got.Status)
}

func TestNextID(t *testing.T) {
	assert.Equal(t, "TICKET-001", nextID(nil))
	assert.Equal(t, "TICKET-011", nextID([]string{"TICKET-002", "TICKET-010", "custom"}))
}
