// Package sequence mints the human-readable, day-scoped policy and claim
// numbers. The next value is derived by counting existing numbers with the
// day's prefix inside the same transaction as the insert; the unique index on
// the number column is the arbiter under concurrency, and a bounded retry
// absorbs the losing side of a race.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type Kind string

const (
	KindPolicy Kind = "policy"
	KindClaim  Kind = "claim"
)

// maxAttempts bounds the uniqueness-conflict retries. Practically
// unreachable, but the budget must exist so a pathological store cannot spin
// the request forever.
const maxAttempts = 5

// Counter counts persisted numbers sharing a prefix. The policy and claim
// repos both satisfy it.
type Counter interface {
	CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error)
}

type Generator struct {
	log      *logger.Logger
	counters map[Kind]Counter
}

func NewGenerator(policyCounter, claimCounter Counter, baseLog *logger.Logger) *Generator {
	return &Generator{
		log: baseLog.With("component", "SequenceGenerator"),
		counters: map[Kind]Counter{
			KindPolicy: policyCounter,
			KindClaim:  claimCounter,
		},
	}
}

func prefixFor(kind Kind) string {
	if kind == KindClaim {
		return "CLM"
	}
	return "POL"
}

// Format renders a number from its parts: POL-2024071501, CLM-2024071503.
// The sequence is zero-padded to two digits and widens naturally past 99.
func Format(kind Kind, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s%02d", prefixFor(kind), at.Format("20060102"), seq)
}

// DayPrefix is the portion shared by every number of a (kind, day) bucket.
func DayPrefix(kind Kind, at time.Time) string {
	return fmt.Sprintf("%s-%s", prefixFor(kind), at.Format("20060102"))
}

// Next computes the next number for (kind, at) by counting inside tx. It
// must run in the same transaction as the insert that consumes the number.
func (g *Generator) Next(ctx context.Context, tx *gorm.DB, kind Kind, at time.Time) (string, error) {
	counter, ok := g.counters[kind]
	if !ok {
		return "", fmt.Errorf("unknown sequence kind %q", kind)
	}
	count, err := counter.CountNumbersWithPrefix(ctx, tx, DayPrefix(kind, at))
	if err != nil {
		return "", err
	}
	return Format(kind, at, count+1), nil
}

// CreateWithNumber runs insert inside a transaction with a freshly minted
// number, retrying with a recomputed value when a concurrent creation wins
// the same sequence slot. Conflicts on anything other than the number column
// are not retried; they surface as conflict errors to the caller.
func (g *Generator) CreateWithNumber(
	ctx context.Context,
	db *gorm.DB,
	kind Kind,
	at time.Time,
	insert func(tx *gorm.DB, number string) error,
) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var number string
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			n, nErr := g.Next(ctx, tx, kind, at)
			if nErr != nil {
				return nErr
			}
			number = n
			return insert(tx, n)
		})
		if err == nil {
			return number, nil
		}
		if !isNumberConflict(err) {
			return "", err
		}
		lastErr = err
		g.log.Warn("Number collision, retrying with next sequence value",
			"kind", string(kind), "number", number, "attempt", attempt)
	}
	return "", apperr.Wrap(apperr.KindIdentifierExhausted,
		fmt.Errorf("sequence retry budget exceeded for %s: %w", kind, lastErr))
}

// isNumberConflict reports whether err is a uniqueness violation on the
// generated number column (as opposed to, say, a duplicate VIN).
func isNumberConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "number")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return strings.Contains(err.Error(), "number")
	}
	return false
}

// IsUniqueViolation reports any uniqueness violation, used by services to
// map storage conflicts (duplicate VIN, username, email) to typed errors.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
