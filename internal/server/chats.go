package server

import (
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
)

// chat is the API-level record of a conversation. The turns themselves
// live in the orchestrator's session store under the same id.
type chat struct {
	ID        string
	Customer  string
	TicketID  string
	CreatedAt time.Time
}

// chatRegistry forgets a chat after ttl without activity, the same idle
// timeout the session store applies to its turns.
type chatRegistry struct {
	chats *cache.Cache
}

func newChatRegistry(ttl time.Duration) *chatRegistry {
	if ttl <= 0 {
		return &chatRegistry{chats: cache.New(cache.NoExpiration, 0)}
	}
	cleanup := ttl / 3
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &chatRegistry{chats: cache.New(ttl, cleanup)}
}

func (r *chatRegistry) add(c chat) {
	r.chats.Set(c.ID, c, cache.DefaultExpiration)
}

func (r *chatRegistry) get(id string) (chat, bool) {
	x, ok := r.chats.Get(id)
	if !ok {
		return chat{}, false
	}
	return x.(chat), true
}

// touch restarts the idle timer of c.
func (r *chatRegistry) touch(c chat) {
	r.chats.Set(c.ID, c, cache.DefaultExpiration)
}

// list returns live chats oldest first.
func (r *chatRegistry) list() []chat {
	items := r.chats.Items()
	out := make([]chat, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(chat))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// count skips expired chats the janitor has not removed yet.
func (r *chatRegistry) count() int {
	return len(r.chats.Items())
}
