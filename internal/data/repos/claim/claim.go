package claim

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/suresight/suresight-backend/internal/domain"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type ClaimRepo interface {
	Create(ctx context.Context, tx *gorm.DB, claim *types.Claim) (*types.Claim, error)
	GetByID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Claim, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Claim, error)
	ListByPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]*types.Claim, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Claim, error)
	UpdateDecision(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, status types.ClaimStatus, approvedAmount *float64) error
	Delete(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) error
	CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error)
}

type claimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	return &claimRepo{db: db, log: baseLog.With("repo", "ClaimRepo")}
}

func (cr *claimRepo) Create(ctx context.Context, tx *gorm.DB, claim *types.Claim) (*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(claim).Error; err != nil {
		return nil, err
	}
	return claim, nil
}

func (cr *claimRepo) GetByID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Claim
	if err := transaction.WithContext(ctx).
		Where("id = ?", claimID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *claimRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Claim
	if err := transaction.WithContext(ctx).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *claimRepo) ListByPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Claim
	if err := transaction.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *claimRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Claim
	if err := transaction.WithContext(ctx).
		Joins("JOIN policy ON policy.id = claim.policy_id").
		Where("policy.owner_id = ?", ownerID).
		Order("claim.created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *claimRepo) UpdateDecision(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, status types.ClaimStatus, approvedAmount *float64) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	fields := map[string]any{"status": status}
	if approvedAmount != nil {
		fields["approved_amount"] = *approvedAmount
	}
	return transaction.WithContext(ctx).
		Model(&types.Claim{}).
		Where("id = ?", claimID).
		Updates(fields).Error
}

func (cr *claimRepo) Delete(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", claimID).
		Delete(&types.Claim{}).Error
}

func (cr *claimRepo) CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Claim{}).
		Where("number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
