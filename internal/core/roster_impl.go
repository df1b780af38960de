package core

import (
	"sync"

	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Roster is a threadsafe in-memory room member list.
// Members keep the order they were first added in; the host lookup
// takes the first host, so order is observable.
type Roster struct {
	mu     sync.RWMutex
	byUser map[domain.StreamID]domain.Member
	order  []domain.StreamID

	changes *Notifier
}

var _ MemberDirectory = (*Roster)(nil)

func NewRoster(members ...domain.Member) *Roster {
	r := &Roster{
		byUser:  make(map[domain.StreamID]domain.Member),
		changes: NewNotifier(),
	}
	for _, m := range members {
		r.put(m)
	}
	return r
}

func (r *Roster) put(m domain.Member) {
	if _, ok := r.byUser[m.UserID]; !ok {
		r.order = append(r.order, m.UserID)
	}
	r.byUser[m.UserID] = m
}

func (r *Roster) Upsert(m domain.Member) {
	r.mu.Lock()
	r.put(m)
	r.mu.Unlock()
	log.Info().Str("module", "core.roster").Str("user", m.UserID.String()).Str("identity", m.Identity.String()).Msg("member upserted")
	r.changes.Notify()
}

func (r *Roster) Remove(id domain.StreamID) bool {
	r.mu.Lock()
	_, ok := r.byUser[id]
	if ok {
		delete(r.byUser, id)
		for i, uid := range r.order {
			if uid == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "core.roster").Str("user", id.String()).Msg("member removed")
		r.changes.Notify()
	}
	return ok
}

// Replace swaps the whole member list, e.g. after a directory reload.
func (r *Roster) Replace(members []domain.Member) {
	r.mu.Lock()
	r.byUser = make(map[domain.StreamID]domain.Member, len(members))
	r.order = r.order[:0]
	for _, m := range members {
		r.put(m)
	}
	n := len(r.order)
	r.mu.Unlock()
	log.Debug().Str("module", "core.roster").Int("members", n).Msg("roster replaced")
	r.changes.Notify()
}

func (r *Roster) Members() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byUser[id])
	}
	return out
}

func (r *Roster) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Roster) Subscribe() (<-chan struct{}, func()) {
	return r.changes.Subscribe()
}
