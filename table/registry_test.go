package table

import (
	"testing"
	"time"

	"github.com/feltstack/holdem/cache"
	"github.com/feltstack/holdem/poker"
)

func testRegistryDefaults() Config {
	return Config{
		MaxSeats: 6,
		HandConfig: poker.Config{
			SmallBlind:    10,
			BigBlind:      20,
			InitialStack:  1000,
			ActionTimeout: 30,
		},
		ReconnectGrace: 200 * time.Millisecond,
		IdleTTL:        50 * time.Millisecond,
		Seed:           1,
	}
}

func TestEnsureTableIsIdempotentByID(t *testing.T) {
	bc := newCapturingBroadcaster()
	r := NewRegistry(testRegistryDefaults(), bc.deliver, cache.NewMemoryGateway(), nil)
	t.Cleanup(r.Stop)

	a, err := r.EnsureTable("table-1", "community-1", 0)
	if err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	b, err := r.EnsureTable("table-1", "community-1", 0)
	if err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}
	if a != b {
		t.Fatalf("expected EnsureTable to return the same session for the same table id")
	}
}

func TestTableForCommunityReusesActiveTable(t *testing.T) {
	bc := newCapturingBroadcaster()
	r := NewRegistry(testRegistryDefaults(), bc.deliver, cache.NewMemoryGateway(), nil)
	t.Cleanup(r.Stop)

	a, err := r.TableForCommunity("community-1")
	if err != nil {
		t.Fatalf("TableForCommunity: %v", err)
	}
	b, err := r.TableForCommunity("community-1")
	if err != nil {
		t.Fatalf("TableForCommunity again: %v", err)
	}
	if a != b {
		t.Fatalf("expected the second join_table for the same community to reuse the first table")
	}
}

func TestOnIdleRemovesTableFromRegistry(t *testing.T) {
	bc := newCapturingBroadcaster()
	r := NewRegistry(testRegistryDefaults(), bc.deliver, cache.NewMemoryGateway(), nil)
	t.Cleanup(r.Stop)

	s, err := r.EnsureTable("table-1", "", 0)
	if err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	must(t, s.SeatPlayer("alice", "Alice", 0, 500))
	must(t, s.Leave("alice"))

	r.onIdle(s.ID())

	if _, ok := r.Get("table-1"); ok {
		t.Fatalf("expected onIdle to remove the table from the registry")
	}
}
