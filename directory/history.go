package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/feltstack/holdem/poker"
)

// PostgresConfig names a Postgres database the way bank-service's db
// layer does: discrete host/port/name/credentials rather than a raw
// DSN, assembled into one internally.
type PostgresConfig struct {
	Host     string
	Port     string
	DBName   string
	User     string
	Password string
}

// HistorySink is the best-effort hand-history writer behind
// recordHandHistory. It is a direct Postgres sink rather than a
// further HTTP hop: the Directory Service owns this data, but
// round-tripping every hand result through its HTTP API would put an
// external dependency on the hot path of hand completion for no
// benefit, since the call is already best-effort/suppressed (§7).
type HistorySink struct {
	db *sql.DB
}

// NewHistorySink opens the hand-history database, blocking (with
// periodic retries) until it accepts connections, then ensures its
// schema exists.
func NewHistorySink(cfg PostgresConfig) (*HistorySink, error) {
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.DBName, cfg.User, cfg.Password)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("directory: open hand history database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	sink := &HistorySink{db: db}
	if err := sink.waitReady(); err != nil {
		db.Close()
		return nil, err
	}
	if err := sink.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *HistorySink) waitReady() error {
	var lastErr error
	for attempt := 1; attempt <= 30; attempt++ {
		if lastErr = s.db.Ping(); lastErr == nil {
			log.Printf("[directory] hand history database ready after %d attempt(s)", attempt)
			return nil
		}
		log.Printf("[directory] hand history database not ready (attempt %d/30): %v", attempt, lastErr)
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("directory: hand history database never became ready: %w", lastErr)
}

func (s *HistorySink) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS hand_history (
	id BIGSERIAL PRIMARY KEY,
	community_id TEXT NOT NULL,
	table_id TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	result JSONB NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("directory: migrate hand_history: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS hand_history_table_idx ON hand_history (table_id, recorded_at DESC)`)
	if err != nil {
		return fmt.Errorf("directory: migrate hand_history index: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *HistorySink) Close() error {
	return s.db.Close()
}

// Record persists one completed hand's settlement result.
func (s *HistorySink) Record(ctx context.Context, communityID, tableID string, result *poker.SettlementResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("directory: encode hand result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hand_history (community_id, table_id, result) VALUES ($1, $2, $3)`,
		communityID, tableID, data)
	return err
}
