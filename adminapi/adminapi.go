// Package adminapi implements the inbound administrative HTTP/JSON
// endpoints of spec.md §6.2: seating a player from outside the
// client gateway (the out-of-band seat path used by whatever system
// owns matchmaking), submitting an agent's action, and polling a
// table's state for a given user. Every handler funnels into
// table.Registry/table.Session, the same admission path the
// websocket gateway uses — no direct Hand mutation happens here.
package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/feltstack/holdem/poker"
	"github.com/feltstack/holdem/table"
)

// Handler wires the admin endpoints to a table registry.
type Handler struct {
	tables *table.Registry
}

func New(tables *table.Registry) *Handler {
	return &Handler{tables: tables}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/seat-player", h.handleSeatPlayer)
	mux.HandleFunc("/agent-action", h.handleAgentAction)
	mux.HandleFunc("/game/", h.handleGameState)
	mux.HandleFunc("/health", h.handleHealth)
}

type seatPlayerRequest struct {
	TableID        string `json:"tableId"`
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	Stack          int64  `json:"stack"`
	SeatNumber     int    `json:"seatNumber"`
	CommunityID    string `json:"communityId"`
	TableName      string `json:"tableName"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type seatPlayerResponse struct {
	GameID       string `json:"gameId"`
	PlayerID     string `json:"playerId"`
	PlayersCount int    `json:"playersCount"`
	MaxSeats     int    `json:"maxSeats"`
}

func (h *Handler) handleSeatPlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req seatPlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TableID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "tableId and userId are required")
		return
	}

	sess, err := h.tables.EnsureTable(req.TableID, req.CommunityID, req.TimeoutSeconds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sess.SeatPlayer(req.UserID, req.Username, req.SeatNumber, req.Stack); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := sess.Snapshot(req.UserID)
	writeJSON(w, http.StatusOK, seatPlayerResponse{
		GameID:       sess.ID(),
		PlayerID:     req.UserID,
		PlayersCount: countSeated(view),
		MaxSeats:     len(view.Seats),
	})
}

type agentActionRequest struct {
	UserID string `json:"userId"`
	GameID string `json:"gameId"`
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

type stateForPlayerResponse struct {
	StateForPlayer poker.View `json:"stateForPlayer"`
}

func (h *Handler) handleAgentAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req agentActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// (userId, gameId) must resolve to exactly one seat: anything else
	// is a 400, never a guess at the caller's intent.
	if req.UserID == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "userId and gameId are required")
		return
	}

	sess, ok := h.tables.Get(req.GameID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
		return
	}
	kind, err := parseActionKind(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.SubmitAction(req.UserID, kind, req.Amount); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateForPlayerResponse{StateForPlayer: sess.Snapshot(req.UserID)})
}

func (h *Handler) handleGameState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	gameID, ok := gameIDFromPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	userID := r.URL.Query().Get("userId")

	sess, ok := h.tables.Get(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
		return
	}
	writeJSON(w, http.StatusOK, stateForPlayerResponse{StateForPlayer: sess.Snapshot(userID)})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// gameIDFromPath extracts gameId from "/game/<gameId>/state".
func gameIDFromPath(path string) (string, bool) {
	const prefix = "/game/"
	const suffix = "/state"
	if len(path) <= len(prefix)+len(suffix) {
		return "", false
	}
	if path[:len(prefix)] != prefix {
		return "", false
	}
	rest := path[len(prefix):]
	if len(rest) <= len(suffix) || rest[len(rest)-len(suffix):] != suffix {
		return "", false
	}
	return rest[:len(rest)-len(suffix)], true
}

func countSeated(v poker.View) int {
	n := 0
	for _, s := range v.Seats {
		if s != nil {
			n++
		}
	}
	return n
}

func parseActionKind(s string) (poker.ActionKind, error) {
	switch s {
	case "fold":
		return poker.ActionFold, nil
	case "check":
		return poker.ActionCheck, nil
	case "call":
		return poker.ActionCall, nil
	case "bet":
		return poker.ActionBet, nil
	case "raise":
		return poker.ActionRaise, nil
	case "all_in", "all-in":
		return poker.ActionAllIn, nil
	default:
		return 0, fmt.Errorf("unknown action kind %q", s)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
