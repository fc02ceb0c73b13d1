package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feltstack/holdem/cache"
	"github.com/feltstack/holdem/poker"
	"github.com/feltstack/holdem/table"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := table.Config{
		MaxSeats: 6,
		HandConfig: poker.Config{
			SmallBlind:    10,
			BigBlind:      20,
			InitialStack:  1000,
			ActionTimeout: 30,
		},
		ReconnectGrace: time.Second,
		Seed:           1,
	}
	reg := table.NewRegistry(cfg, func(string, table.OutboundEvent) {}, cache.NewMemoryGateway(), nil)
	t.Cleanup(reg.Stop)
	return New(reg)
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSeatPlayerCreatesTableAndSeatsUser(t *testing.T) {
	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := postJSON(t, mux, "/seat-player", seatPlayerRequest{
		TableID: "table-1", UserID: "alice", Username: "Alice", Stack: 500, SeatNumber: 0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp seatPlayerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.GameID != "table-1" || resp.PlayerID != "alice" || resp.PlayersCount != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSeatPlayerRejectsDuplicateSeat(t *testing.T) {
	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := seatPlayerRequest{TableID: "table-1", UserID: "alice", Username: "Alice", Stack: 500, SeatNumber: 0}
	if rec := postJSON(t, mux, "/seat-player", req); rec.Code != http.StatusOK {
		t.Fatalf("first seat-player: %d", rec.Code)
	}
	req2 := seatPlayerRequest{TableID: "table-1", UserID: "bob", Username: "Bob", Stack: 500, SeatNumber: 0}
	rec := postJSON(t, mux, "/seat-player", req2)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an occupied seat, got %d", rec.Code)
	}
}

func TestAgentActionRejectsUnknownGame(t *testing.T) {
	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := postJSON(t, mux, "/agent-action", agentActionRequest{UserID: "alice", GameID: "no-such-table", Action: "fold"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown game, got %d", rec.Code)
	}
}

func TestGameStateReturnsSnapshot(t *testing.T) {
	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	postJSON(t, mux, "/seat-player", seatPlayerRequest{TableID: "table-1", UserID: "alice", Username: "Alice", Stack: 500, SeatNumber: 0})

	req := httptest.NewRequest(http.MethodGet, "/game/table-1/state?userId=alice", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp stateForPlayerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.StateForPlayer.Viewer == nil {
		t.Fatalf("expected a viewer-specific view for the seated user")
	}
}

func TestGameStateUnknownGameIs404(t *testing.T) {
	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/game/no-such-table/state", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthReturnsOK(t *testing.T) {
	h := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
