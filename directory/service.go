// Package directory adapts the Directory Service described in
// spec.md §6.3: account/token verification, wallet debit/credit,
// seat release, and best-effort hand-history recording. The table
// and gateway packages never talk to it directly; they depend on
// the narrower table.DirectoryClient and gateway.TokenVerifier
// interfaces, which Service satisfies structurally.
//
// Two implementations are provided: HTTPClient, which calls out to a
// real Directory Service over HTTP (MODE=prod), and LocalDirectory,
// a self-contained sqlite-backed stand-in for local development and
// tests (MODE=test).
package directory

import (
	"context"
	"errors"

	"github.com/feltstack/holdem/poker"
)

// ErrInvalidCredentials is returned by VerifyToken for an unknown or
// expired token, and by Login for a bad username/password pair.
var ErrInvalidCredentials = errors.New("directory: invalid credentials")

// Service is the full outbound contract spec.md §6.3 describes:
// verifyToken, debitWallet, creditWallet, unseatPlayer, checkCleanup,
// getTableConfig, recordHandHistory. ReportPayoutIntent is the
// table package's name for the leave-time payout call; both
// implementations here route it through CreditWallet.
type Service interface {
	VerifyToken(ctx context.Context, token string) (userID, displayName string, err error)
	DebitWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (newBalance int64, err error)
	CreditWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (newBalance int64, err error)
	UnseatPlayer(ctx context.Context, tableID, userID string) error
	ReportPayoutIntent(ctx context.Context, tableID, userID string, amount int64) error
	CheckCleanup(ctx context.Context, tableID string) (shouldClose bool, err error)
	GetTableConfig(ctx context.Context, tableID string) (actionTimeoutSeconds int, err error)
	RecordHandHistory(ctx context.Context, communityID, tableID string, result *poker.SettlementResult, final poker.View) error
}
