package table

import (
	"fmt"
	"sync"

	"github.com/feltstack/holdem/cache"
)

// Registry owns every live table actor in the process: find-or-create
// by explicit table id (admin seating), find-or-create by community
// (the gateway's join_table quick-start), and event-driven removal
// once a table actor reports itself idle.
//
// Grounded on the teacher's Lobby (QuickStart/GetTable/
// CleanupIdleTables), generalized from a periodic sweep into
// per-table idle callbacks since Session already tracks its own
// empty-since timestamp.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	byCommunity map[string]string
	seq         int64

	defaults  Config
	broadcast Broadcaster
	cache     cache.Gateway
	directory DirectoryClient
}

// NewRegistry creates an empty table registry. defaults supplies the
// HandConfig/MaxSeats/ReconnectGrace/IdleTTL/Seed used for any table
// created without an explicit override; its TableID/CommunityID
// fields are ignored.
func NewRegistry(defaults Config, broadcast Broadcaster, cacheGW cache.Gateway, directory DirectoryClient) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		byCommunity: make(map[string]string),
		defaults:    defaults,
		broadcast:   broadcast,
		cache:       cacheGW,
		directory:   directory,
	}
}

// Get returns an already-live table by id.
func (r *Registry) Get(tableID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tableID]
	return s, ok
}

// EnsureTable returns tableID's session, creating it if this is the
// first reference. actionTimeoutSeconds, if positive, overrides the
// registry default for a newly created table only.
func (r *Registry) EnsureTable(tableID, communityID string, actionTimeoutSeconds int) (*Session, error) {
	r.mu.Lock()
	if s, ok := r.sessions[tableID]; ok {
		r.mu.Unlock()
		return s, nil
	}
	cfg := r.defaults
	cfg.TableID = tableID
	cfg.CommunityID = communityID
	if actionTimeoutSeconds > 0 {
		cfg.HandConfig.ActionTimeout = actionTimeoutSeconds
	}
	r.mu.Unlock()

	s, err := New(cfg, r.broadcast, r.cache, r.directory, r.onIdle)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[tableID]; ok {
		// Lost a creation race: keep the winner, stop our spare.
		s.Stop()
		return existing, nil
	}
	r.sessions[tableID] = s
	if communityID != "" {
		r.byCommunity[communityID] = tableID
	}
	return s, nil
}

// RestoreTable rehydrates a table actor from previously serialized
// hand bytes (a cache hit found at process startup) instead of
// dealing a fresh Hand.
func (r *Registry) RestoreTable(tableID, communityID string, data []byte) (*Session, error) {
	cfg := r.defaults
	cfg.TableID = tableID
	cfg.CommunityID = communityID

	s, err := Restore(cfg, data, r.broadcast, r.cache, r.directory, r.onIdle)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[tableID] = s
	if communityID != "" {
		r.byCommunity[communityID] = tableID
	}
	return s, nil
}

// TableForCommunity implements the gateway's join_table(communityId)
// quick-start: reuse the community's current table if it still has
// one, otherwise mint a new table id for it.
func (r *Registry) TableForCommunity(communityID string) (*Session, error) {
	r.mu.Lock()
	tableID, ok := r.byCommunity[communityID]
	r.mu.Unlock()
	if ok {
		if s, ok2 := r.Get(tableID); ok2 {
			return s, nil
		}
	}

	r.mu.Lock()
	r.seq++
	tableID = fmt.Sprintf("community-%s-%d", communityID, r.seq)
	r.mu.Unlock()
	return r.EnsureTable(tableID, communityID, 0)
}

// onIdle is the Session idle-cleanup callback (SPEC_FULL.md §7): once
// a table has had zero seated users past its IdleTTL, drop it from
// the registry and stop its actor.
func (r *Registry) onIdle(tableID string) {
	r.mu.Lock()
	s, ok := r.sessions[tableID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, tableID)
	for cid, tid := range r.byCommunity {
		if tid == tableID {
			delete(r.byCommunity, cid)
		}
	}
	r.mu.Unlock()
	s.Stop()
}

// Stop shuts down every live table actor.
func (r *Registry) Stop() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.byCommunity = make(map[string]string)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
