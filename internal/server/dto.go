package server

import (
	"time"

	"supportagent/internal/domain"
)

type initializeRequest struct {
	ClearExisting bool `json:"clear_existing"`
}

type searchRequest struct {
	Query   string `json:"query" validate:"required"`
	TopK    int    `json:"top_k" validate:"gte=0,lte=50"`
	Source  string `json:"source"`
	Diverse bool   `json:"diverse"`
}

type searchHit struct {
	Document   string `json:"document"`
	Source     string `json:"source"`
	Page       int    `json:"page"`
	Similarity string `json:"similarity"`
	Relevance  string `json:"relevance"`
}

type searchResponse struct {
	Query        string      `json:"query"`
	ResultsCount int         `json:"results_count"`
	Results      []searchHit `json:"results"`
}

type createChatRequest struct {
	CustomerName string `json:"customer_name" validate:"required,max=200"`
	TicketID     string `json:"ticket_id" validate:"omitempty,max=64"`
}

type createChatResponse struct {
	ChatID       string    `json:"chat_id"`
	CustomerName string    `json:"customer_name"`
	TicketID     string    `json:"ticket_id,omitempty"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

type sendMessageRequest struct {
	UserMessage string `json:"user_message" validate:"required,max=8000"`
}

type kbSource struct {
	Source     string `json:"source"`
	Page       int    `json:"page"`
	Similarity string `json:"similarity"`
	Excerpt    string `json:"excerpt"`
}

type sendMessageResponse struct {
	ChatID             string         `json:"chat_id"`
	AgentResponse      string         `json:"agent_response"`
	KBSources          []kbSource     `json:"kb_sources"`
	TicketInfo         *domain.Ticket `json:"ticket_info"`
	ConversationLength int            `json:"conversation_length"`
	Timestamp          time.Time      `json:"timestamp"`
}

type historyMessage struct {
	Role    domain.Role `json:"role"`
	Message string      `json:"message"`
}

type historyResponse struct {
	ChatID       string           `json:"chat_id"`
	CustomerName string           `json:"customer_name"`
	TicketID     string           `json:"ticket_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	Messages     []historyMessage `json:"messages"`
}

type chatSummary struct {
	ChatID       string    `json:"chat_id"`
	CustomerName string    `json:"customer_name"`
	TicketID     string    `json:"ticket_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

type createTicketRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Customer    string `json:"customer_name" validate:"required,max=200"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Category    string `json:"category" validate:"max=64"`
	AssignedTo  string `json:"assigned_to" validate:"max=200"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

type addNoteRequest struct {
	Note string `json:"note" validate:"required,max=5000"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
