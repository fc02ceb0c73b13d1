package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feltstack/holdem/poker"
)

func TestHTTPClientVerifyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify-token" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Token string `json:"token"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Token != "tok-alice" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(struct {
			UserID      string `json:"userId"`
			DisplayName string `json:"displayName"`
		}{UserID: "alice", DisplayName: "Alice"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	userID, displayName, err := c.VerifyToken(context.Background(), "tok-alice")
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if userID != "alice" || displayName != "Alice" {
		t.Fatalf("VerifyToken = (%q, %q), want (alice, Alice)", userID, displayName)
	}

	if _, _, err := c.VerifyToken(context.Background(), "bogus"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for a bad token, got %v", err)
	}
}

func TestHTTPClientDebitWalletRetriesOnFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(struct {
			NewBalance int64 `json:"newBalance"`
		}{NewBalance: 8500})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	balance, err := c.DebitWallet(context.Background(), "alice", "community-1", 1500, "buy-in")
	if err != nil {
		t.Fatalf("DebitWallet: %v", err)
	}
	if balance != 8500 {
		t.Fatalf("balance = %d, want 8500", balance)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestHTTPClientUnseatPlayerPostsExpectedBody(t *testing.T) {
	var gotBody struct {
		TableID string `json:"tableId"`
		UserID  string `json:"userId"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	if err := c.UnseatPlayer(context.Background(), "table-1", "alice"); err != nil {
		t.Fatalf("UnseatPlayer: %v", err)
	}
	if gotBody.TableID != "table-1" || gotBody.UserID != "alice" {
		t.Fatalf("unexpected request body %+v", gotBody)
	}
}

func TestHTTPClientRecordHandHistoryWithoutSinkIsANoOp(t *testing.T) {
	c := NewHTTPClient("http://unused.invalid", nil)
	result := &poker.SettlementResult{}
	if err := c.RecordHandHistory(context.Background(), "community-1", "table-1", result, poker.View{}); err != nil {
		t.Fatalf("expected a nil error with no sink configured, got %v", err)
	}
}
