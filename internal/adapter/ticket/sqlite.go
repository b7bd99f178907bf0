package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	status        TEXT NOT NULL,
	priority      TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	customer_name TEXT NOT NULL,
	created_date  TEXT NOT NULL,
	assigned_to   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets (customer_name COLLATE NOCASE);
CREATE TABLE IF NOT EXISTS ticket_notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id  TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
	created_at TEXT NOT NULL,
	body       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ticket_notes_ticket ON ticket_notes (ticket_id);
`

const ticketColumns = `id, title, status, priority, category, description, customer_name, created_date, assigned_to`

// SQLiteStore persists tickets in a SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ port.TicketStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and, when it holds no tickets
// yet, inserts seed.
func NewSQLiteStore(path string, seed []domain.Ticket) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := s.seed(seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding tickets: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) seed(tickets []domain.Ticket) error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tickets").Scan(&count); err != nil {
		return err
	}
	if count > 0 || len(tickets) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range tickets {
		if err := insertTicket(context.Background(), tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTicket(ctx context.Context, db execer, t domain.Ticket) error {
	_, err := db.ExecContext(ctx, `INSERT INTO tickets (`+ticketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Status, t.Priority, t.Category, t.Description, t.Customer, t.CreatedDate, t.AssignedTo)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := s.query(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, nil
	}
	return &tickets[0], nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.query(ctx, "")
}

func (s *SQLiteStore) Create(ctx context.Context, t domain.Ticket) (*domain.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM tickets")
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	created, err := prepareNew(t, nextID(ids), s.now())
	if err != nil {
		return nil, err
	}
	if err := insertTicket(ctx, tx, created); err != nil {
		return nil, fmt.Errorf("inserting ticket: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id, status string) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE tickets SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (s *SQLiteStore) AddNote(ctx context.Context, id, note string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM tickets WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return notFound(id)
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO ticket_notes (ticket_id, created_at, body) VALUES (?, ?, ?)",
		id, s.now().UTC().Format(time.RFC3339Nano), note)
	return err
}

func (s *SQLiteStore) Search(ctx context.Context, query string) ([]domain.Ticket, error) {
	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.query(ctx, `WHERE lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'`, like, like)
}

func (s *SQLiteStore) ListByCustomer(ctx context.Context, customer string) ([]domain.Ticket, error) {
	return s.query(ctx, "WHERE customer_name = ? COLLATE NOCASE", customer)
}

func (s *SQLiteStore) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	return s.query(ctx, "WHERE status = ?", domain.TicketOpen)
}

func (s *SQLiteStore) query(ctx context.Context, where string, args ...any) ([]domain.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+ticketColumns+" FROM tickets "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.Priority, &t.Category,
			&t.Description, &t.Customer, &t.CreatedDate, &t.AssignedTo); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tickets {
		notes, err := s.notes(ctx, tickets[i].ID)
		if err != nil {
			return nil, err
		}
		tickets[i].Notes = notes
	}
	return tickets, nil
}

func (s *SQLiteStore) notes(ctx context.Context, id string) ([]domain.TicketNote, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT created_at, body FROM ticket_notes WHERE ticket_id = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.TicketNote
	for rows.Next() {
		var ts, body string
		if err := rows.Scan(&ts, &body); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing note timestamp: %w", err)
		}
		notes = append(notes, domain.TicketNote{Timestamp: parsed, Text: body})
	}
	return notes, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
