package directory

import (
	"context"
	"errors"
	"testing"
)

func newTestLocalDirectory(t *testing.T) *LocalDirectory {
	t.Helper()
	d, err := NewLocalDirectory(":memory:")
	if err != nil {
		t.Fatalf("NewLocalDirectory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRegisterThenVerifyToken(t *testing.T) {
	d := newTestLocalDirectory(t)
	ctx := context.Background()

	userID, token, err := d.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if userID == "" || token == "" {
		t.Fatalf("expected a non-empty userID and token")
	}

	gotUserID, displayName, err := d.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if gotUserID != userID {
		t.Fatalf("VerifyToken returned userID %q, want %q", gotUserID, userID)
	}
	if displayName != "alice" {
		t.Fatalf("VerifyToken returned displayName %q, want alice", displayName)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	d := newTestLocalDirectory(t)
	ctx := context.Background()

	if _, _, err := d.Register(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, _, err := d.Register(ctx, "alice", "different"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	d := newTestLocalDirectory(t)
	ctx := context.Background()

	if _, _, err := d.Register(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := d.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := d.Login(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("Login with the right password: %v", err)
	}
}

func TestVerifyTokenRejectsUnknownToken(t *testing.T) {
	d := newTestLocalDirectory(t)
	if _, _, err := d.VerifyToken(context.Background(), "not-a-real-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestWalletDebitAndCreditAdjustBalance(t *testing.T) {
	d := newTestLocalDirectory(t)
	ctx := context.Background()

	userID, _, err := d.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	balance, err := d.DebitWallet(ctx, userID, "", 1500, "buy-in")
	if err != nil {
		t.Fatalf("DebitWallet: %v", err)
	}
	if want := int64(startingBalance - 1500); balance != want {
		t.Fatalf("balance after debit = %d, want %d", balance, want)
	}

	balance, err = d.CreditWallet(ctx, userID, "", 500, "payout")
	if err != nil {
		t.Fatalf("CreditWallet: %v", err)
	}
	if want := int64(startingBalance - 1500 + 500); balance != want {
		t.Fatalf("balance after credit = %d, want %d", balance, want)
	}
}

func TestDebitWalletNeverGoesNegative(t *testing.T) {
	d := newTestLocalDirectory(t)
	ctx := context.Background()

	userID, _, err := d.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	balance, err := d.DebitWallet(ctx, userID, "", startingBalance+5000, "overdraw")
	if err != nil {
		t.Fatalf("DebitWallet: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance after overdraw = %d, want 0", balance)
	}
}
