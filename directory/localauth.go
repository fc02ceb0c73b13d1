package directory

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
	"golang.org/x/crypto/bcrypt"

	"github.com/feltstack/holdem/poker"
)

// ErrUsernameTaken is returned by Register when the username already
// has an account.
var ErrUsernameTaken = errors.New("directory: username already exists")

const (
	tokenBytes        = 32
	defaultSessionTTL = 24 * time.Hour
	startingBalance   = 10_000
)

// LocalDirectory is the MODE=test stand-in for the real Directory
// Service: username/password accounts and bearer session tokens
// backed by sqlite, grounded on the teacher's SQLiteManager. It has
// no real wallet ledger or hand-history store, so those calls are
// reduced to an in-table balance column and a silent no-op
// respectively.
type LocalDirectory struct {
	db         *sql.DB
	sessionTTL time.Duration
}

// NewLocalDirectory opens (creating if necessary) the sqlite database
// at dbPath and ensures its schema exists. dbPath may be ":memory:"
// for ephemeral use in tests.
func NewLocalDirectory(dbPath string) (*LocalDirectory, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("directory: empty local database path")
	}
	if dbPath != ":memory:" {
		if parent := filepath.Dir(dbPath); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureLocalSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &LocalDirectory{db: db, sessionTTL: defaultSessionTTL}, nil
}

func ensureLocalSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	balance INTEGER NOT NULL DEFAULT 0
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_username_ci ON accounts(lower(username))`,
		`
CREATE TABLE IF NOT EXISTS auth_sessions (
	token TEXT PRIMARY KEY,
	account_id INTEGER NOT NULL,
	expires_at_ms INTEGER NOT NULL,
	FOREIGN KEY(account_id) REFERENCES accounts(id) ON DELETE CASCADE
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection.
func (d *LocalDirectory) Close() error {
	return d.db.Close()
}

// Register creates a new account and immediately issues it a session
// token, mirroring how a standalone dev/test deployment would let a
// client sign up and connect in one step.
func (d *LocalDirectory) Register(ctx context.Context, username, password string) (userID, token string, err error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", "", fmt.Errorf("directory: username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (username, password_hash, balance) VALUES (?, ?, ?)`,
		username, string(hash), startingBalance)
	if err != nil {
		if isLocalUniqueViolation(err) {
			return "", "", ErrUsernameTaken
		}
		return "", "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", "", err
	}
	accountID := fmt.Sprintf("%d", id)

	token, err = d.issueSessionTx(ctx, tx, accountID)
	if err != nil {
		return "", "", err
	}
	if err := tx.Commit(); err != nil {
		return "", "", err
	}
	return accountID, token, nil
}

// Login verifies a username/password pair and issues a fresh session
// token.
func (d *LocalDirectory) Login(ctx context.Context, username, password string) (userID, token string, err error) {
	var accountID int64
	var hash string
	err = d.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM accounts WHERE lower(username) = lower(?)`, username).
		Scan(&accountID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback()

	userID = fmt.Sprintf("%d", accountID)
	token, err = d.issueSessionTx(ctx, tx, userID)
	if err != nil {
		return "", "", err
	}
	if err := tx.Commit(); err != nil {
		return "", "", err
	}
	return userID, token, nil
}

func (d *LocalDirectory) issueSessionTx(ctx context.Context, tx *sql.Tx, accountID string) (string, error) {
	expiresAtMs := time.Now().Add(d.sessionTTL).UnixMilli()
	for i := 0; i < 5; i++ {
		token := mustLocalToken()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO auth_sessions (token, account_id, expires_at_ms) VALUES (?, ?, ?)`,
			token, accountID, expiresAtMs)
		if err != nil {
			if isLocalUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("directory: failed to generate a unique session token")
}

// VerifyToken resolves a bearer token to its account, sliding the
// session's expiry forward the way the teacher's ResolveSession does.
func (d *LocalDirectory) VerifyToken(ctx context.Context, token string) (string, string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", ErrInvalidCredentials
	}
	nowMs := time.Now().UnixMilli()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback()

	var accountID int64
	var username string
	err = tx.QueryRowContext(ctx, `
SELECT accounts.id, accounts.username
FROM auth_sessions
JOIN accounts ON accounts.id = auth_sessions.account_id
WHERE auth_sessions.token = ? AND auth_sessions.expires_at_ms > ?
`, token, nowMs).Scan(&accountID, &username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	newExpiry := time.Now().Add(d.sessionTTL).UnixMilli()
	if _, err := tx.ExecContext(ctx, `UPDATE auth_sessions SET expires_at_ms = ? WHERE token = ?`, newExpiry, token); err != nil {
		return "", "", err
	}
	if err := tx.Commit(); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%d", accountID), username, nil
}

func (d *LocalDirectory) DebitWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (int64, error) {
	return d.adjustBalance(ctx, userID, -amount)
}

func (d *LocalDirectory) CreditWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (int64, error) {
	return d.adjustBalance(ctx, userID, amount)
}

func (d *LocalDirectory) adjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, userID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("directory: unknown account %s", userID)
		}
		return 0, err
	}
	balance += delta
	if balance < 0 {
		balance = 0
	}
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance, userID); err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

// UnseatPlayer has nothing to reconcile in test mode beyond the
// wallet balance already tracked locally; it exists only so
// LocalDirectory satisfies Service.
func (d *LocalDirectory) UnseatPlayer(ctx context.Context, tableID, userID string) error {
	return nil
}

func (d *LocalDirectory) ReportPayoutIntent(ctx context.Context, tableID, userID string, amount int64) error {
	_, err := d.CreditWallet(ctx, userID, "", amount, "table leave payout")
	return err
}

// CheckCleanup always defers to the table's own idle timer in test
// mode; there is no external lifecycle authority to consult.
func (d *LocalDirectory) CheckCleanup(ctx context.Context, tableID string) (bool, error) {
	return false, nil
}

// GetTableConfig returns 0 so the caller falls back to its own
// default action timeout.
func (d *LocalDirectory) GetTableConfig(ctx context.Context, tableID string) (int, error) {
	return 0, nil
}

// RecordHandHistory is a no-op in test mode: there is no Postgres
// sink configured, and dropping hand history locally is acceptable
// since it is best-effort even in production.
func (d *LocalDirectory) RecordHandHistory(ctx context.Context, communityID, tableID string, result *poker.SettlementResult, final poker.View) error {
	return nil
}

func mustLocalToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func isLocalUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
