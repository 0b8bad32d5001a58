package insurable

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/suresight/suresight-backend/internal/domain"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type InsurableRepo interface {
	Create(ctx context.Context, tx *gorm.DB, insurable *types.Insurable) (*types.Insurable, error)
	GetByID(ctx context.Context, tx *gorm.DB, insurableID uuid.UUID) (*types.Insurable, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Insurable, error)
	ListByPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]*types.Insurable, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Insurable, error)
	UpdateVehicle(ctx context.Context, tx *gorm.DB, insurableID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, insurableID uuid.UUID) error
	VINExists(ctx context.Context, tx *gorm.DB, vin string) (bool, error)
}

type insurableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsurableRepo(db *gorm.DB, baseLog *logger.Logger) InsurableRepo {
	return &insurableRepo{db: db, log: baseLog.With("repo", "InsurableRepo")}
}

// Create inserts the base record and, when present, the kind payload in one
// transaction. gorm writes the Vehicle association alongside the base row.
func (ir *insurableRepo) Create(ctx context.Context, tx *gorm.DB, insurable *types.Insurable) (*types.Insurable, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	if insurable.Vehicle != nil {
		insurable.Vehicle.InsurableID = insurable.ID
	}
	if err := transaction.WithContext(ctx).Create(insurable).Error; err != nil {
		return nil, err
	}
	return insurable, nil
}

func (ir *insurableRepo) GetByID(ctx context.Context, tx *gorm.DB, insurableID uuid.UUID) (*types.Insurable, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var result types.Insurable
	if err := transaction.WithContext(ctx).
		Preload("Vehicle").
		Where("id = ?", insurableID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ir *insurableRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Insurable, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.Insurable
	if err := transaction.WithContext(ctx).
		Preload("Vehicle").
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ir *insurableRepo) ListByPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]*types.Insurable, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.Insurable
	if err := transaction.WithContext(ctx).
		Preload("Vehicle").
		Where("policy_id = ?", policyID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListByOwner scopes assets through the owning policy, which is how the
// ownership boundary for insurables is defined.
func (ir *insurableRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Insurable, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.Insurable
	if err := transaction.WithContext(ctx).
		Preload("Vehicle").
		Joins("JOIN policy ON policy.id = insurable.policy_id").
		Where("policy.owner_id = ?", ownerID).
		Order("insurable.created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ir *insurableRepo) UpdateVehicle(ctx context.Context, tx *gorm.DB, insurableID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Vehicle{}).
		Where("insurable_id = ?", insurableID).
		Updates(fields).Error
}

func (ir *insurableRepo) Delete(ctx context.Context, tx *gorm.DB, insurableID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Where("insurable_id = ?", insurableID).Delete(&types.Vehicle{}).Error; err != nil {
			return err
		}
		return inner.Where("id = ?", insurableID).Delete(&types.Insurable{}).Error
	})
}

func (ir *insurableRepo) VINExists(ctx context.Context, tx *gorm.DB, vin string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Vehicle{}).
		Where("vin = ?", vin).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
