// Package ticket provides the support ticket repositories: an in-memory
// store seeded with sample tickets and a SQLite store.
package ticket

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"supportagent/internal/domain"
)

const (
	defaultCategory = "general"
	defaultPriority = "medium"
	defaultAssignee = "Support Team"
	dateLayout      = "2006-01-02"
)

// SampleTickets are the tickets a fresh store starts with.
func SampleTickets() []domain.Ticket {
	return []domain.Ticket{
		{
			ID:          "TICKET-001",
			Customer:    "Alice Johnson",
			Status:      domain.TicketOpen,
			Priority:    "high",
			CreatedDate: "2024-11-25",
			Title:       "Cannot access account",
			Description: "User unable to log in. Getting 'Invalid credentials' error.",
			Category:    "account",
			AssignedTo:  "Support Team",
		},
		{
			ID:          "TICKET-002",
			Customer:    "Bob Smith",
			Status:      domain.TicketOpen,
			Priority:    "medium",
			CreatedDate: "2024-11-28",
			Title:       "Product not working as expected",
			Description: "Application crashes when uploading large files.",
			Category:    "product",
			AssignedTo:  "Support Team",
		},
		{
			ID:          "TICKET-003",
			Customer:    "Charlie Brown",
			Status:      domain.TicketResolved,
			Priority:    "low",
			CreatedDate: "2024-11-20",
			Title:       "Billing inquiry",
			Description: "Question about recent invoice charges.",
			Category:    "billing",
			AssignedTo:  "Billing Team",
		},
	}
}

// prepareNew validates t and fills the defaults of a freshly opened ticket.
func prepareNew(t domain.Ticket, id string, now time.Time) (domain.Ticket, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.Customer = strings.TrimSpace(t.Customer)
	if t.Title == "" {
		return t, fmt.Errorf("%w: ticket title is required", domain.ErrInvalidInput)
	}
	if t.Customer == "" {
		return t, fmt.Errorf("%w: customer name is required", domain.ErrInvalidInput)
	}
	if t.Priority == "" {
		t.Priority = defaultPriority
	}
	if !domain.ValidTicketPriority(t.Priority) {
		return t, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, t.Priority)
	}
	if t.Category == "" {
		t.Category = defaultCategory
	}
	if t.AssignedTo == "" {
		t.AssignedTo = defaultAssignee
	}
	t.ID = id
	t.Status = domain.TicketOpen
	t.CreatedDate = now.Format(dateLayout)
	t.Notes = nil
	return t, nil
}

func checkStatus(status string) error {
	if !domain.ValidTicketStatus(status) {
		return fmt.Errorf("%w: unknown ticket status %q", domain.ErrInvalidInput, status)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("ticket %s: %w", id, domain.ErrNotFound)
}

// nextID returns TICKET-NNN one past the highest numbered id.
func nextID(ids []string) string {
	max := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, "TICKET-"))
		if err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("TICKET-%03d", max+1)
}

func matchesQuery(t domain.Ticket, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func sortByID(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.Notes != nil {
		t.Notes = append([]domain.TicketNote(nil), t.Notes...)
	}
	return t
}
