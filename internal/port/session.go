package port

import "supportagent/internal/domain"

// SessionStore keeps conversation histories keyed by session ID.
// Implementations must be safe for concurrent use; callers serialize
// read-modify-write of a single session themselves.
type SessionStore interface {
	Get(id string) (*domain.Session, bool)
	Put(session *domain.Session)
	// Delete reports whether the session existed.
	Delete(id string) bool
	Count() int
}
