package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/suresight/suresight-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&types.User{},

		// Coverage
		&types.Policy{},
		&types.Insurable{},
		&types.Vehicle{},

		// Claims
		&types.Claim{},
	)
}

// EnsureIndexes adds the constraints the number generator and the evidence
// pipeline depend on beyond what AutoMigrate derives from tags.
func EnsureIndexes(db *gorm.DB) error {
	// Day-prefix scans for sequence derivation.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_policy_number_prefix ON policy (number text_pattern_ops);`).Error; err != nil {
		return fmt.Errorf("create idx_policy_number_prefix: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_claim_number_prefix ON claim (number text_pattern_ops);`).Error; err != nil {
		return fmt.Errorf("create idx_claim_number_prefix: %w", err)
	}
	// Claim subject integrity helper.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_claim_policy_subject ON claim (policy_id, subject_id);`).Error; err != nil {
		return fmt.Errorf("create idx_claim_policy_subject: %w", err)
	}
	return nil
}
