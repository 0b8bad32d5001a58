package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/suresight/suresight-backend/internal/authz"
	"github.com/suresight/suresight-backend/internal/data/repos/insurable"
	"github.com/suresight/suresight-backend/internal/data/repos/policy"
	"github.com/suresight/suresight-backend/internal/data/sequence"
	"github.com/suresight/suresight-backend/internal/modules/verification"
	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type AddVehicleInput struct {
	PolicyID uuid.UUID          `json:"policy_id"`
	Vehicle  VehicleDeclaration `json:"vehicle"`
	Evidence AngleEvidence      `json:"evidence"`
}

type UpdateVehicleInput struct {
	RegistrationNo *string `json:"registration_no,omitempty"`
}

type InsurableService interface {
	// AddVehicle insures an additional vehicle under an existing policy. The
	// declaration is verified against the angle photographs exactly as at
	// policy creation.
	AddVehicle(ctx context.Context, in AddVehicleInput) (*types.Insurable, error)
	GetInsurable(ctx context.Context, insurableID uuid.UUID) (*types.Insurable, error)
	ListInsurables(ctx context.Context) ([]*types.Insurable, error)
	ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*types.Insurable, error)
	UpdateVehicle(ctx context.Context, insurableID uuid.UUID, in UpdateVehicleInput) (*types.Insurable, error)
	DeleteInsurable(ctx context.Context, insurableID uuid.UUID) error
}

type insurableService struct {
	db            *gorm.DB
	log           *logger.Logger
	policyRepo    policy.PolicyRepo
	insurableRepo insurable.InsurableRepo
	evidence      EvidenceService
	verifier      *verification.Verifier
}

func NewInsurableService(
	db *gorm.DB,
	log *logger.Logger,
	policyRepo policy.PolicyRepo,
	insurableRepo insurable.InsurableRepo,
	evidence EvidenceService,
	verifier *verification.Verifier,
) InsurableService {
	return &insurableService{
		db:            db,
		log:           log.With("service", "InsurableService"),
		policyRepo:    policyRepo,
		insurableRepo: insurableRepo,
		evidence:      evidence,
		verifier:      verifier,
	}
}

// ownerOfPolicy resolves the ownership boundary for an insurable, which is
// always the owning policy's owner.
func (is *insurableService) ownerOfPolicy(ctx context.Context, policyID uuid.UUID) (*types.Policy, error) {
	p, err := is.policyRepo.GetByID(ctx, nil, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "policy not found")
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return p, nil
}

func (is *insurableService) AddVehicle(ctx context.Context, in AddVehicleInput) (*types.Insurable, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := is.ownerOfPolicy(ctx, in.PolicyID)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpCreate, authz.Resource{Kind: authz.ResourceInsurable, OwnerID: p.OwnerID}), "insurable"); dErr != nil {
		return nil, dErr
	}
	if p.Status == types.PolicyExpired {
		return nil, apperr.New(apperr.KindConflict, "cannot add vehicles to an expired policy")
	}

	switch {
	case !in.Vehicle.Type.Valid():
		return nil, apperr.New(apperr.KindValidation, "unknown vehicle type %q", in.Vehicle.Type)
	case strings.TrimSpace(in.Vehicle.Make) == "" || strings.TrimSpace(in.Vehicle.Model) == "":
		return nil, apperr.New(apperr.KindValidation, "vehicle make and model are required")
	case in.Vehicle.YearOfPurchase < 1900:
		return nil, apperr.New(apperr.KindValidation, "year of purchase is implausible")
	case strings.TrimSpace(in.Vehicle.VIN) == "":
		return nil, apperr.New(apperr.KindValidation, "vin is required")
	case !in.Evidence.complete():
		return nil, apperr.New(apperr.KindValidation, "all four angle photographs are required")
	}

	exists, err := is.insurableRepo.VINExists(ctx, nil, in.Vehicle.VIN)
	if err != nil {
		return nil, fmt.Errorf("check vin: %w", err)
	}
	if exists {
		return nil, apperr.New(apperr.KindConflict, "vehicle with VIN %q is already insured", in.Vehicle.VIN)
	}

	images, err := is.evidence.ResolveImages(ctx, in.Evidence.keys())
	if err != nil {
		return nil, err
	}
	result := is.verifier.Verify(ctx, verification.FourAngles{
		Front: images[0], Rear: images[1], Left: images[2], Right: images[3],
	}, verification.Declared{
		Make:  in.Vehicle.Make,
		Model: in.Vehicle.Model,
		Type:  in.Vehicle.Type,
		Year:  in.Vehicle.YearOfPurchase,
	})
	if vErr := result.Err(); vErr != nil {
		return nil, vErr
	}

	evidenceJSON, err := json.Marshal(in.Evidence.keys())
	if err != nil {
		return nil, fmt.Errorf("encode evidence keys: %w", err)
	}
	damageReport := ""
	if result.Extracted != nil {
		damageReport = result.Extracted.Damages
	}

	asset := &types.Insurable{
		ID:       uuid.New(),
		Kind:     types.KindVehicle,
		PolicyID: p.ID,
		Vehicle: &types.Vehicle{
			Type:           in.Vehicle.Type,
			Make:           strings.TrimSpace(in.Vehicle.Make),
			Model:          strings.TrimSpace(in.Vehicle.Model),
			YearOfPurchase: in.Vehicle.YearOfPurchase,
			VIN:            strings.ToUpper(strings.TrimSpace(in.Vehicle.VIN)),
			RegistrationNo: strings.TrimSpace(in.Vehicle.RegistrationNo),
			EvidenceKeys:   datatypes.JSON(evidenceJSON),
			DamageReport:   damageReport,
		},
	}
	if _, err := is.insurableRepo.Create(ctx, nil, asset); err != nil {
		// A VIN race past the VINExists check lands here as a unique
		// violation from the store.
		if sequence.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "vehicle with VIN %q is already insured", in.Vehicle.VIN)
		}
		return nil, fmt.Errorf("create insurable: %w", err)
	}
	is.log.Info("Vehicle added to policy", "policy_id", p.ID, "insurable_id", asset.ID)
	return asset, nil
}

func (is *insurableService) GetInsurable(ctx context.Context, insurableID uuid.UUID) (*types.Insurable, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	asset, err := is.insurableRepo.GetByID(ctx, nil, insurableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "insurable not found")
		}
		return nil, fmt.Errorf("load insurable: %w", err)
	}
	p, err := is.ownerOfPolicy(ctx, asset.PolicyID)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpRead, authz.Resource{Kind: authz.ResourceInsurable, OwnerID: p.OwnerID}), "insurable"); dErr != nil {
		return nil, dErr
	}
	return asset, nil
}

func (is *insurableService) ListInsurables(ctx context.Context) ([]*types.Insurable, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpList, authz.Resource{Kind: authz.ResourceInsurable}), "insurables"); dErr != nil {
		return nil, dErr
	}
	if actor.Role.Privileged() {
		return is.insurableRepo.List(ctx, nil)
	}
	return is.insurableRepo.ListByOwner(ctx, nil, actor.ID)
}

func (is *insurableService) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*types.Insurable, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := is.ownerOfPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpRead, authz.Resource{Kind: authz.ResourcePolicy, OwnerID: p.OwnerID}), "policy"); dErr != nil {
		return nil, dErr
	}
	return is.insurableRepo.ListByPolicy(ctx, nil, policyID)
}

func (is *insurableService) UpdateVehicle(ctx context.Context, insurableID uuid.UUID, in UpdateVehicleInput) (*types.Insurable, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	asset, err := is.insurableRepo.GetByID(ctx, nil, insurableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "insurable not found")
		}
		return nil, fmt.Errorf("load insurable: %w", err)
	}
	p, err := is.ownerOfPolicy(ctx, asset.PolicyID)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpUpdate, authz.Resource{Kind: authz.ResourceInsurable, OwnerID: p.OwnerID}), "insurable"); dErr != nil {
		return nil, dErr
	}

	// The verified identity (make, model, type, year, VIN) is immutable;
	// only registration metadata may change.
	fields := map[string]any{}
	if in.RegistrationNo != nil {
		fields["registration_no"] = strings.TrimSpace(*in.RegistrationNo)
	}
	if err := is.insurableRepo.UpdateVehicle(ctx, nil, insurableID, fields); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return is.insurableRepo.GetByID(ctx, nil, insurableID)
}

func (is *insurableService) DeleteInsurable(ctx context.Context, insurableID uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	asset, err := is.insurableRepo.GetByID(ctx, nil, insurableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "insurable not found")
		}
		return fmt.Errorf("load insurable: %w", err)
	}
	p, err := is.ownerOfPolicy(ctx, asset.PolicyID)
	if err != nil {
		return err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpDelete, authz.Resource{Kind: authz.ResourceInsurable, OwnerID: p.OwnerID}), "insurable"); dErr != nil {
		return dErr
	}
	if err := is.insurableRepo.Delete(ctx, nil, insurableID); err != nil {
		return fmt.Errorf("delete insurable: %w", err)
	}
	is.log.Info("Insurable deleted", "insurable_id", insurableID, "by", actor.ID)
	return nil
}
