package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"supportagent/internal/domain"
	"supportagent/internal/usecase"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"timestamp":    time.Now(),
		"kb_status":    s.container.Service.CollectionInfo(c.UserContext()),
		"active_chats": s.chats.count(),
	})
}

func (s *Server) initializeKB(c *fiber.Ctx) error {
	var req initializeRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	s.log.Info(moduleServer, "initializing knowledge base", map[string]interface{}{"clear_existing": req.ClearExisting})
	res, err := s.container.Service.InitializeIndex(c.UserContext(), req.ClearExisting, nil)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) kbInfo(c *fiber.Ctx) error {
	return c.JSON(s.container.Service.CollectionInfo(c.UserContext()))
}

func (s *Server) searchKB(c *fiber.Ctx) error {
	var req searchRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	var filter *domain.Filter
	if req.Source != "" {
		filter = &domain.Filter{Source: req.Source}
	}
	var results []domain.SearchResult
	if req.Diverse {
		results = s.container.Service.SearchDiverse(c.UserContext(), req.Query, req.TopK, filter)
	} else {
		results = s.container.Service.SearchFiltered(c.UserContext(), req.Query, req.TopK, filter)
	}
	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, searchHit{
			Document:   truncate(r.Text, 500),
			Source:     r.Metadata.Source,
			Page:       r.Metadata.Page,
			Similarity: domain.FormatSimilarity(r.Similarity),
			Relevance:  domain.RelevanceOf(r.Similarity),
		})
	}
	return c.JSON(searchResponse{
		Query:        req.Query,
		ResultsCount: len(hits),
		Results:      hits,
	})
}

func (s *Server) createChat(c *fiber.Ctx) error {
	var req createChatRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	ch := chat{
		ID:        uuid.NewString(),
		Customer:  strings.TrimSpace(req.CustomerName),
		TicketID:  strings.TrimSpace(req.TicketID),
		CreatedAt: time.Now(),
	}
	s.chats.add(ch)

	greeting := fmt.Sprintf("Hello %s! I'm your AI support agent. How can I help you today?", ch.Customer)
	if ch.TicketID != "" {
		greeting += fmt.Sprintf(" I see you have ticket %s associated with this chat.", ch.TicketID)
	}

	s.log.Info(moduleServer, "chat created", map[string]interface{}{
		"chat_id":   ch.ID,
		"ticket_id": ch.TicketID,
	})
	return c.JSON(createChatResponse{
		ChatID:       ch.ID,
		CustomerName: ch.Customer,
		TicketID:     ch.TicketID,
		Message:      greeting,
		Timestamp:    ch.CreatedAt,
	})
}

func (s *Server) lookupChat(c *fiber.Ctx) (chat, error) {
	id := c.Params("id")
	ch, ok := s.chats.get(id)
	if !ok {
		return chat{}, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Chat session %s not found", id))
	}
	s.chats.touch(ch)
	return ch, nil
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	ch, err := s.lookupChat(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	reply := s.container.Service.ProcessMessage(c.UserContext(), req.UserMessage, ch.ID, ch.TicketID)

	sources := make([]kbSource, 0, len(reply.Sources))
	for _, src := range reply.Sources {
		sources = append(sources, kbSource{
			Source:     src.Source,
			Page:       src.Page,
			Similarity: domain.FormatSimilarity(src.Similarity),
			Excerpt:    src.Excerpt,
		})
	}
	return c.JSON(sendMessageResponse{
		ChatID:             ch.ID,
		AgentResponse:      reply.Response,
		KBSources:          sources,
		TicketInfo:         reply.Ticket,
		ConversationLength: reply.ConversationLength,
		Timestamp:          time.Now(),
	})
}

func (s *Server) chatHistory(c *fiber.Ctx) error {
	ch, err := s.lookupChat(c)
	if err != nil {
		return err
	}

	turns, _ := s.container.Service.History(ch.ID)
	messages := make([]historyMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, historyMessage{Role: t.Role, Message: t.Content})
	}
	return c.JSON(historyResponse{
		ChatID:       ch.ID,
		CustomerName: ch.Customer,
		TicketID:     ch.TicketID,
		CreatedAt:    ch.CreatedAt,
		Messages:     messages,
	})
}

func (s *Server) clearChat(c *fiber.Ctx) error {
	ch, err := s.lookupChat(c)
	if err != nil {
		return err
	}

	s.container.Service.ClearHistory(ch.ID)
	return c.JSON(statusResponse{
		Status:  usecase.StatusSuccess,
		Message: fmt.Sprintf("Chat history cleared for %s", ch.ID),
	})
}

func (s *Server) listChats(c *fiber.Ctx) error {
	chats := s.chats.list()
	out := make([]chatSummary, 0, len(chats))
	for _, ch := range chats {
		turns, _ := s.container.Service.History(ch.ID)
		out = append(out, chatSummary{
			ChatID:       ch.ID,
			CustomerName: ch.Customer,
			TicketID:     ch.TicketID,
			CreatedAt:    ch.CreatedAt,
			MessageCount: len(turns),
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "chats": out})
}

// listTickets supports ?customer=, ?q= and ?status=open filters.
func (s *Server) listTickets(c *fiber.Ctx) error {
	ctx := c.UserContext()
	store := s.container.Tickets

	var (
		tickets []domain.Ticket
		err     error
	)
	switch {
	case c.Query("customer") != "":
		tickets, err = store.ListByCustomer(ctx, c.Query("customer"))
	case c.Query("q") != "":
		tickets, err = store.Search(ctx, c.Query("q"))
	case c.Query("status") == domain.TicketOpen:
		tickets, err = store.ListOpen(ctx)
	default:
		tickets, err = store.List(ctx)
	}
	if err != nil {
		return err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return c.JSON(fiber.Map{"total": len(tickets), "tickets": tickets})
}

func (s *Server) getTicket(c *fiber.Ctx) error {
	id := c.Params("id")
	t, err := s.container.Tickets.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if t == nil {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Ticket %s not found", id))
	}
	return c.JSON(t)
}

func (s *Server) createTicket(c *fiber.Ctx) error {
	var req createTicketRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	t, err := s.container.Tickets.Create(c.UserContext(), domain.Ticket{
		Title:       req.Title,
		Description: req.Description,
		Customer:    req.Customer,
		Priority:    req.Priority,
		Category:    req.Category,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (s *Server) updateTicketStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	id := c.Params("id")
	if err := s.container.Tickets.UpdateStatus(c.UserContext(), id, req.Status); err != nil {
		return err
	}
	return c.JSON(statusResponse{
		Status:  usecase.StatusSuccess,
		Message: fmt.Sprintf("Ticket %s is now %s", id, req.Status),
	})
}

func (s *Server) addTicketNote(c *fiber.Ctx) error {
	var req addNoteRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	id := c.Params("id")
	if err := s.container.Tickets.AddNote(c.UserContext(), id, req.Note); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(statusResponse{
		Status:  usecase.StatusSuccess,
		Message: fmt.Sprintf("Note added to %s", id),
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
