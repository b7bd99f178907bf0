package usecase

import (
	"context"
	"strings"

	"supportagent/internal/domain"
	"supportagent/internal/logger"
	"supportagent/internal/port"
)

const moduleTickets = "tickets"

// TicketContext is the read-only view of tickets used for prompt context.
// Unknown ids and repository failures both read as "no ticket".
type TicketContext struct {
	repo port.TicketRepository
	log  logger.ILogger
}

func NewTicketContext(repo port.TicketRepository, log logger.ILogger) *TicketContext {
	return &TicketContext{repo: repo, log: log}
}

// Lookup returns the ticket or nil.
func (tc *TicketContext) Lookup(ctx context.Context, id string) *domain.Ticket {
	id = strings.TrimSpace(id)
	if tc == nil || tc.repo == nil || id == "" {
		return nil
	}

	t, err := tc.repo.Get(ctx, id)
	if err != nil {
		tc.log.Warn(moduleTickets, "ticket lookup failed", map[string]interface{}{
			"ticket_id": id,
			"error":     err,
		})
		return nil
	}
	if t == nil {
		tc.log.Info(moduleTickets, "ticket not found", map[string]interface{}{"ticket_id": id})
	}
	return t
}

// Summarize formats the ticket for prompt inclusion.
func (tc *TicketContext) Summarize(ctx context.Context, id string) (string, bool) {
	t := tc.Lookup(ctx, id)
	if t == nil {
		return "", false
	}
	return FormatTicketSummary(t), true
}

// FormatTicketSummary renders a fixed, ordered block of ticket fields.
// Empty optional fields are left out.
func FormatTicketSummary(t *domain.Ticket) string {
	var b strings.Builder
	line := func(label, value string, required bool) {
		if value == "" && !required {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}

	line("Ticket ID", t.ID, true)
	line("Title", t.Title, true)
	line("Status", t.Status, true)
	line("Priority", t.Priority, true)
	line("Category", t.Category, false)
	line("Customer", t.Customer, false)
	line("Created", t.CreatedDate, false)
	line("Description", t.Description, false)
	line("Assigned To", t.AssignedTo, false)
	return b.String()
}
