package sequence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type seqRecord struct {
	ID     uint    `gorm:"primaryKey"`
	Number string  `gorm:"uniqueIndex;not null"`
	VIN    *string `gorm:"uniqueIndex"`
}

type recordCounter struct {
	db *gorm.DB
}

func (c recordCounter) CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error) {
	if tx == nil {
		tx = c.db
	}
	var n int64
	err := tx.WithContext(ctx).Model(&seqRecord{}).
		Where("number LIKE ?", prefix+"%").
		Count(&n).Error
	return n, err
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seq_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&seqRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testGenerator(t *testing.T, db *gorm.DB) *Generator {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	counter := recordCounter{db: db}
	return NewGenerator(counter, counter, log)
}

func TestFormat(t *testing.T) {
	at := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	if got := Format(KindPolicy, at, 1); got != "POL-2024071501" {
		t.Fatalf("policy number = %q", got)
	}
	if got := Format(KindClaim, at, 3); got != "CLM-2024071503" {
		t.Fatalf("claim number = %q", got)
	}
	if got := Format(KindPolicy, at, 100); got != "POL-20240715100" {
		t.Fatalf("sequence past 99 must widen, got %q", got)
	}
}

func TestDayPrefix(t *testing.T) {
	at := time.Date(2024, 7, 15, 23, 59, 0, 0, time.UTC)
	if got := DayPrefix(KindPolicy, at); got != "POL-20240715" {
		t.Fatalf("policy prefix = %q", got)
	}
	if got := DayPrefix(KindClaim, at); got != "CLM-20240715" {
		t.Fatalf("claim prefix = %q", got)
	}
}

func TestCreateWithNumber_MintsSequentialNumbers(t *testing.T) {
	db := testDB(t)
	g := testGenerator(t, db)
	at := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	insert := func(tx *gorm.DB, number string) error {
		return tx.Create(&seqRecord{Number: number}).Error
	}

	want := []string{"POL-2024071501", "POL-2024071502", "POL-2024071503"}
	for i, w := range want {
		got, err := g.CreateWithNumber(context.Background(), db, KindPolicy, at, insert)
		if err != nil {
			t.Fatalf("create %d: %v", i+1, err)
		}
		if got != w {
			t.Fatalf("create %d: number = %q, want %q", i+1, got, w)
		}
	}
}

func TestCreateWithNumber_ConcurrentCreationsAreDistinctAndGapless(t *testing.T) {
	db := testDB(t)
	// sqlite cannot hold two write transactions at once; a single connection
	// serializes them while the goroutine interleaving stays real.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	g := testGenerator(t, db)
	at := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	insert := func(tx *gorm.DB, number string) error {
		return tx.Create(&seqRecord{Number: number}).Error
	}

	const n = 10
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := g.CreateWithNumber(context.Background(), db, KindPolicy, at, insert)
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			numbers <- num
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		if seen[num] {
			t.Fatalf("duplicate number %q", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d numbers, want %d", len(seen), n)
	}
	for i := int64(1); i <= n; i++ {
		if want := Format(KindPolicy, at, i); !seen[want] {
			t.Fatalf("sequence has a gap: %q missing", want)
		}
	}
}

func TestCreateWithNumber_KindsDoNotInterfere(t *testing.T) {
	db := testDB(t)
	g := testGenerator(t, db)
	at := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	insert := func(tx *gorm.DB, number string) error {
		return tx.Create(&seqRecord{Number: number}).Error
	}

	if _, err := g.CreateWithNumber(context.Background(), db, KindPolicy, at, insert); err != nil {
		t.Fatalf("policy create: %v", err)
	}
	got, err := g.CreateWithNumber(context.Background(), db, KindClaim, at, insert)
	if err != nil {
		t.Fatalf("claim create: %v", err)
	}
	if got != "CLM-2024071501" {
		t.Fatalf("claim sequence must not be advanced by policies, got %q", got)
	}
}

func TestCreateWithNumber_ForeignConflictIsNotRetried(t *testing.T) {
	db := testDB(t)
	g := testGenerator(t, db)
	at := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	vin := "1HGBH41JXMN109186"
	if err := db.Create(&seqRecord{Number: "POL-2024071401", VIN: &vin}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	attempts := 0
	_, err := g.CreateWithNumber(context.Background(), db, KindPolicy, at, func(tx *gorm.DB, number string) error {
		attempts++
		return tx.Create(&seqRecord{Number: number, VIN: &vin}).Error
	})
	if err == nil {
		t.Fatalf("expected uniqueness violation")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected a unique violation, got %v", err)
	}
	if apperr.IsKind(err, apperr.KindIdentifierExhausted) {
		t.Fatalf("a duplicate vin must not burn the retry budget")
	}
	if attempts != 1 {
		t.Fatalf("conflicts outside the number column must not retry, got %d attempts", attempts)
	}
}

func TestCreateWithNumber_ExhaustedRetriesAreTyped(t *testing.T) {
	db := testDB(t)
	g := testGenerator(t, db)
	at := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	taken := Format(KindPolicy, at, 1)
	if err := db.Create(&seqRecord{Number: taken}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	attempts := 0
	_, err := g.CreateWithNumber(context.Background(), db, KindPolicy, at, func(tx *gorm.DB, number string) error {
		attempts++
		// Simulates a racer that keeps winning the same slot.
		return tx.Create(&seqRecord{Number: taken}).Error
	})
	if !apperr.IsKind(err, apperr.KindIdentifierExhausted) {
		t.Fatalf("expected identifier_exhausted, got %v", err)
	}
	if attempts != 5 {
		t.Fatalf("expected the full retry budget, got %d attempts", attempts)
	}
}
