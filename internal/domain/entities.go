package domain

import "time"

// Document is one loaded unit of source text, typically a file or a single
// page of a PDF. It only lives for the duration of an ingestion run.
type Document struct {
	Source string // file name shown to users
	Path   string
	Page   int // 1-based
	Text   string
}

// Metadata is the provenance attached to every chunk.
type Metadata struct {
	Source     string `json:"source"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

type Chunk struct {
	ID       string
	Text     string
	Metadata Metadata
}

// IndexEntry is what the vector store persists for a chunk.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

type SearchResult struct {
	Text       string   `json:"text"`
	Metadata   Metadata `json:"metadata"`
	Similarity float64  `json:"similarity"`
}

// Filter restricts a search by metadata. Zero-valued fields match anything.
type Filter struct {
	Source string
	Page   int
}

// Matches reports whether md satisfies the filter. A nil filter matches all.
func (f *Filter) Matches(md Metadata) bool {
	if f == nil {
		return true
	}
	if f.Source != "" && f.Source != md.Source {
		return false
	}
	if f.Page != 0 && f.Page != md.Page {
		return false
	}
	return true
}

type IngestResult struct {
	FilesLoaded     int      `json:"files_loaded"`
	FilesFailed     int      `json:"files_failed"`
	DocumentsLoaded int      `json:"documents_loaded"`
	ChunksCreated   int      `json:"chunks_created"`
	Errors          []string `json:"errors,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type SessionState string

const (
	SessionNew    SessionState = "NEW"
	SessionActive SessionState = "ACTIVE"
)

// Session is the bounded conversation history of one chat.
type Session struct {
	ID        string
	Turns     []Turn
	UpdatedAt time.Time
}

func (s *Session) State() SessionState {
	if s == nil || len(s.Turns) == 0 {
		return SessionNew
	}
	return SessionActive
}

// Source is a knowledge-base excerpt returned alongside a reply.
type Source struct {
	Source     string  `json:"source"`
	Page       int     `json:"page"`
	Similarity float64 `json:"similarity"`
	Excerpt    string  `json:"excerpt"`
}

// Reply is the result of processing one user message.
type Reply struct {
	Response           string   `json:"response"`
	Sources            []Source `json:"sources"`
	Ticket             *Ticket  `json:"ticket_info,omitempty"`
	ConversationLength int      `json:"conversation_length"`
	Fallback           bool     `json:"-"`
}

const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

type Ticket struct {
	ID          string       `json:"ticket_id"`
	Title       string       `json:"title"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Customer    string       `json:"customer_name"`
	CreatedDate string       `json:"created_date"`
	AssignedTo  string       `json:"assigned_to"`
	Notes       []TicketNote `json:"notes,omitempty"`
}

type TicketNote struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// ValidTicketStatus reports whether status is one the ticket store accepts.
func ValidTicketStatus(status string) bool {
	switch status {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// ValidTicketPriority reports whether priority is a known level.
func ValidTicketPriority(priority string) bool {
	switch priority {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}
