package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supportagent/internal/domain"
	"supportagent/internal/logger"
	"supportagent/internal/metrics"
	"supportagent/internal/port"
)

const moduleOrchestrator = "orchestrator"

// FallbackResponse replaces the model reply whenever the model call fails.
const FallbackResponse = "I apologize, but I encountered an error processing your request. Please try again."

const systemPrompt = `You are a helpful and professional customer support agent. Your role is to:

1. Listen to customer issues and concerns
2. Search the knowledge base for relevant information
3. Access ticket information if provided
4. Provide clear, accurate, and helpful responses
5. Be empathetic and professional
6. Offer solutions or escalation when needed

When responding:
- Be concise but thorough
- Reference specific information from the knowledge base when applicable
- Maintain the context of the conversation
- If you don't know something, say so and offer to help find the answer
- Always be polite and professional

The customer may reference a ticket ID. Use this to provide personalized support based on their existing issue history.`

const (
	excerptRunes = 200
	contentRunes = 500
)

var sectionRule = strings.Repeat("=", 50)

// Searcher is the part of the knowledge index the orchestrator needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filter *domain.Filter) []domain.SearchResult
}

type OrchestratorConfig struct {
	TopK       int
	MaxPairs   int
	LLMTimeout time.Duration
}

// Orchestrator turns one user message into a reply: it gathers knowledge
// base and ticket context, replays the session history to the model and
// records the exchange. Calls for the same session are serialized.
type Orchestrator struct {
	index    Searcher
	tickets  *TicketContext
	llm      port.LLM
	sessions port.SessionStore
	locks    *keyedMutex
	cfg      OrchestratorConfig
	log      logger.ILogger
	metrics  *metrics.Metrics
}

func NewOrchestrator(
	index Searcher,
	tickets *TicketContext,
	llm port.LLM,
	sessions port.SessionStore,
	cfg OrchestratorConfig,
	log logger.ILogger,
	m *metrics.Metrics,
) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = 25
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 30 * time.Second
	}
	return &Orchestrator{
		index:    index,
		tickets:  tickets,
		llm:      llm,
		sessions: sessions,
		locks:    newKeyedMutex(),
		cfg:      cfg,
		log:      log,
		metrics:  m,
	}
}

// Process answers message within sessionID. It never fails: model errors
// become FallbackResponse, which is recorded like any other reply.
func (o *Orchestrator) Process(ctx context.Context, message, sessionID, ticketID string) domain.Reply {
	results := o.index.Search(ctx, message, o.cfg.TopK, nil)

	var ticket *domain.Ticket
	if ticketID != "" {
		ticket = o.tickets.Lookup(ctx, ticketID)
	}

	system := BuildSystemContext(ticket, results)

	unlock := o.locks.Lock(sessionID)
	defer unlock()

	session, ok := o.sessions.Get(sessionID)
	if !ok {
		session = &domain.Session{ID: sessionID}
	}

	turns := make([]domain.Turn, 0, len(session.Turns)+1)
	turns = append(turns, session.Turns...)
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: message})

	response, fallback := o.invoke(ctx, sessionID, system, turns)

	session.Turns = EvictOldestPairs(append(turns, domain.Turn{Role: domain.RoleAssistant, Content: response}), o.cfg.MaxPairs)
	session.UpdatedAt = time.Now()
	o.sessions.Put(session)
	o.metrics.SetActiveSessions(o.sessions.Count())

	return domain.Reply{
		Response:           response,
		Sources:            toSources(results),
		Ticket:             ticket,
		ConversationLength: len(session.Turns),
		Fallback:           fallback,
	}
}

func (o *Orchestrator) invoke(ctx context.Context, sessionID, system string, turns []domain.Turn) (string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.LLMTimeout)
	defer cancel()

	o.log.Debug(moduleOrchestrator, "calling model", map[string]interface{}{
		"session_id":  sessionID,
		"turns":       len(turns),
		"system_size": len(system),
	})

	start := time.Now()
	reply, err := o.llm.Chat(callCtx, system, turns)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		status := metrics.StatusError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			status = metrics.StatusFallback
		}
		o.metrics.RecordLLM(status, time.Since(start))
		o.log.Error(moduleOrchestrator, "model call failed, using fallback", map[string]interface{}{
			"session_id": sessionID,
			"model":      o.llm.ModelName(),
			"error":      fmt.Errorf("%w: %w", domain.ErrModelInvocation, err),
		})
		return FallbackResponse, true
	}

	o.metrics.RecordLLM(metrics.StatusSuccess, time.Since(start))
	return reply, false
}

// ClearHistory forgets a session. It reports false, changing nothing, when
// the session is unknown.
func (o *Orchestrator) ClearHistory(sessionID string) bool {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	if !o.sessions.Delete(sessionID) {
		return false
	}
	o.metrics.RecordSessionCleared()
	o.metrics.SetActiveSessions(o.sessions.Count())
	o.log.Info(moduleOrchestrator, "history cleared", map[string]interface{}{"session_id": sessionID})
	return true
}

// History returns a copy of the session's turns.
func (o *Orchestrator) History(sessionID string) ([]domain.Turn, bool) {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	s, ok := o.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	return append([]domain.Turn(nil), s.Turns...), true
}

func (o *Orchestrator) SessionState(sessionID string) domain.SessionState {
	s, _ := o.sessions.Get(sessionID)
	return s.State()
}

func (o *Orchestrator) ActiveSessions() int {
	return o.sessions.Count()
}

// EvictOldestPairs drops whole user/assistant pairs from the front until at
// most 2*maxPairs turns remain.
func EvictOldestPairs(turns []domain.Turn, maxPairs int) []domain.Turn {
	limit := 2 * maxPairs
	if len(turns) <= limit {
		return turns
	}
	excess := len(turns) - limit
	if excess%2 == 1 {
		excess++
	}
	if excess > len(turns) {
		excess = len(turns)
	}
	return append([]domain.Turn(nil), turns[excess:]...)
}

// BuildSystemContext assembles the instructions, the ticket block and the
// ranked knowledge base excerpts.
func BuildSystemContext(ticket *domain.Ticket, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if ticket != nil {
		b.WriteString("\n\nTicket Information:\n")
		b.WriteString(sectionRule)
		b.WriteByte('\n')
		b.WriteString(FormatTicketSummary(ticket))
	}

	if len(results) > 0 {
		b.WriteString("\n\nRelevant Information from Knowledge Base:\n")
		b.WriteString(sectionRule)
		b.WriteByte('\n')
		for i, r := range results {
			fmt.Fprintf(&b, "\n[Source %d] %s (Page %d)\n", i+1, r.Metadata.Source, r.Metadata.Page)
			fmt.Fprintf(&b, "Relevance: %s\n", domain.FormatSimilarity(r.Similarity))
			fmt.Fprintf(&b, "Content: %s\n", ellipsize(r.Text, contentRunes))
		}
	}
	return b.String()
}

func toSources(results []domain.SearchResult) []domain.Source {
	sources := make([]domain.Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, domain.Source{
			Source:     r.Metadata.Source,
			Page:       r.Metadata.Page,
			Similarity: domain.ClampSimilarity(r.Similarity),
			Excerpt:    ellipsize(r.Text, excerptRunes),
		})
	}
	return sources
}

func ellipsize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
