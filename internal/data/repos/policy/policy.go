package policy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/suresight/suresight-backend/internal/domain"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type PolicyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, policy *types.Policy) (*types.Policy, error)
	GetByID(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*types.Policy, error)
	GetByIDFull(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*types.Policy, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Policy, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Policy, error)
	Update(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, fields map[string]any) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, status types.PolicyStatus) error
	Delete(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) error
	CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error)
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	return &policyRepo{db: db, log: baseLog.With("repo", "PolicyRepo")}
}

func (pr *policyRepo) Create(ctx context.Context, tx *gorm.DB, policy *types.Policy) (*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if err := transaction.WithContext(ctx).Create(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

func (pr *policyRepo) GetByID(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Policy
	if err := transaction.WithContext(ctx).
		Where("id = ?", policyID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// GetByIDFull loads the policy with its insurables (and their vehicle
// payloads), claims, and owner for the detail view.
func (pr *policyRepo) GetByIDFull(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Policy
	if err := transaction.WithContext(ctx).
		Preload("Insurables").
		Preload("Insurables.Vehicle").
		Preload("Claims").
		Preload("Owner").
		Where("id = ?", policyID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *policyRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if err := transaction.WithContext(ctx).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *policyRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *policyRepo) Update(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Policy{}).
		Where("id = ?", policyID).
		Updates(fields).Error
}

func (pr *policyRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, status types.PolicyStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Policy{}).
		Where("id = ?", policyID).
		Update("status", status).Error
}

// Delete removes the policy and cascades to its insurables (with vehicle
// payloads) and claims. The cascade is explicit so it holds on stores
// without FK enforcement (the sqlite test database included).
func (pr *policyRepo) Delete(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.
			Where("insurable_id IN (?)", inner.Session(&gorm.Session{NewDB: true}).
				Model(&types.Insurable{}).
				Select("id").
				Where("policy_id = ?", policyID)).
			Delete(&types.Vehicle{}).Error; err != nil {
			return err
		}
		if err := inner.Where("policy_id = ?", policyID).Delete(&types.Insurable{}).Error; err != nil {
			return err
		}
		if err := inner.Where("policy_id = ?", policyID).Delete(&types.Claim{}).Error; err != nil {
			return err
		}
		return inner.Where("id = ?", policyID).Delete(&types.Policy{}).Error
	})
}

func (pr *policyRepo) CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Policy{}).
		Where("number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
