package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/suresight/suresight-backend/internal/authz"
	rediscache "github.com/suresight/suresight-backend/internal/clients/redis"
	"github.com/suresight/suresight-backend/internal/data/repos/insurable"
	"github.com/suresight/suresight-backend/internal/data/repos/policy"
	"github.com/suresight/suresight-backend/internal/data/sequence"
	"github.com/suresight/suresight-backend/internal/modules/verification"
	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/gemini"

	types "github.com/suresight/suresight-backend/internal/domain"
)

// VehicleDeclaration is the operator-entered identity of the vehicle being
// insured, verified against the four angle photographs before any policy row
// exists.
type VehicleDeclaration struct {
	Type           types.VehicleType `json:"type"`
	Make           string            `json:"make"`
	Model          string            `json:"model"`
	YearOfPurchase int               `json:"year_of_purchase"`
	VIN            string            `json:"vin"`
	RegistrationNo string            `json:"registration_no"`
}

// AngleEvidence names the four required photograph keys.
type AngleEvidence struct {
	Front string `json:"front"`
	Rear  string `json:"rear"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

func (a AngleEvidence) keys() []string { return []string{a.Front, a.Rear, a.Left, a.Right} }

func (a AngleEvidence) complete() bool {
	for _, k := range a.keys() {
		if strings.TrimSpace(k) == "" {
			return false
		}
	}
	return true
}

type CreatePolicyInput struct {
	// OwnerID defaults to the actor; only privileged actors may set it to
	// another user.
	OwnerID        uuid.UUID          `json:"owner_id"`
	Holder         string             `json:"holder"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	Premium        float64            `json:"premium"`
	CoverageAmount float64            `json:"coverage_amount"`
	Vehicle        VehicleDeclaration `json:"vehicle"`
	Evidence       AngleEvidence      `json:"evidence"`
}

type UpdatePolicyInput struct {
	Holder  *string    `json:"holder,omitempty"`
	Premium *float64   `json:"premium,omitempty"`
	EndDate *time.Time `json:"end_date,omitempty"`
}

type PolicyService interface {
	CreatePolicy(ctx context.Context, in CreatePolicyInput) (*types.Policy, error)
	GetPolicy(ctx context.Context, policyID uuid.UUID) (*types.Policy, error)
	ListPolicies(ctx context.Context) ([]*types.Policy, error)
	UpdatePolicy(ctx context.Context, policyID uuid.UUID, in UpdatePolicyInput) (*types.Policy, error)
	SetPolicyStatus(ctx context.Context, policyID uuid.UUID, next types.PolicyStatus) (*types.Policy, error)
	DeletePolicy(ctx context.Context, policyID uuid.UUID) error
}

type policyService struct {
	db            *gorm.DB
	log           *logger.Logger
	policyRepo    policy.PolicyRepo
	insurableRepo insurable.InsurableRepo
	evidence      EvidenceService
	verifier      *verification.Verifier
	sequences     *sequence.Generator
	cache         rediscache.VerdictCache
	now           func() time.Time
}

func NewPolicyService(
	db *gorm.DB,
	log *logger.Logger,
	policyRepo policy.PolicyRepo,
	insurableRepo insurable.InsurableRepo,
	evidence EvidenceService,
	verifier *verification.Verifier,
	sequences *sequence.Generator,
	cache rediscache.VerdictCache,
) PolicyService {
	return &policyService{
		db:            db,
		log:           log.With("service", "PolicyService"),
		policyRepo:    policyRepo,
		insurableRepo: insurableRepo,
		evidence:      evidence,
		verifier:      verifier,
		sequences:     sequences,
		cache:         cache,
		now:           time.Now,
	}
}

func (ps *policyService) CreatePolicy(ctx context.Context, in CreatePolicyInput) (*types.Policy, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	ownerID := in.OwnerID
	if ownerID == uuid.Nil {
		ownerID = actor.ID
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpCreate, authz.Resource{Kind: authz.ResourcePolicy, OwnerID: ownerID}), "policy"); dErr != nil {
		return nil, dErr
	}

	if vErr := ps.validateCreate(in); vErr != nil {
		return nil, vErr
	}

	exists, err := ps.insurableRepo.VINExists(ctx, nil, in.Vehicle.VIN)
	if err != nil {
		return nil, fmt.Errorf("check vin: %w", err)
	}
	if exists {
		return nil, apperr.New(apperr.KindConflict, "vehicle with VIN %q is already insured", in.Vehicle.VIN)
	}

	images, err := ps.evidence.ResolveImages(ctx, in.Evidence.keys())
	if err != nil {
		return nil, err
	}
	angles := verification.FourAngles{Front: images[0], Rear: images[1], Left: images[2], Right: images[3]}
	declared := verification.Declared{
		Make:  in.Vehicle.Make,
		Model: in.Vehicle.Model,
		Type:  in.Vehicle.Type,
		Year:  in.Vehicle.YearOfPurchase,
	}

	result := ps.verifyWithCache(ctx, angles, declared, images)
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

	created := &types.Policy{
		ID:             uuid.New(),
		Holder:         strings.TrimSpace(in.Holder),
		OwnerID:        ownerID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Premium:        in.Premium,
		CoverageAmount: in.CoverageAmount,
		Status:         types.PolicyUnderReview,
	}
	asset := &types.Insurable{
		ID:       uuid.New(),
		Kind:     types.KindVehicle,
		PolicyID: created.ID,
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

	number, err := ps.sequences.CreateWithNumber(ctx, ps.db, sequence.KindPolicy, ps.now(), func(tx *gorm.DB, number string) error {
		created.Number = number
		if _, cErr := ps.policyRepo.Create(ctx, tx, created); cErr != nil {
			return cErr
		}
		_, iErr := ps.insurableRepo.Create(ctx, tx, asset)
		return iErr
	})
	if err != nil {
		if sequence.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "vehicle with VIN %q is already insured", in.Vehicle.VIN)
		}
		return nil, err
	}

	ps.log.Info("Policy created", "policy_id", created.ID, "number", number, "owner_id", ownerID)
	created.Insurables = []*types.Insurable{asset}
	return created, nil
}

func (ps *policyService) validateCreate(in CreatePolicyInput) error {
	switch {
	case strings.TrimSpace(in.Holder) == "":
		return apperr.New(apperr.KindValidation, "holder is required")
	case in.StartDate.IsZero() || in.EndDate.IsZero():
		return apperr.New(apperr.KindValidation, "start and end dates are required")
	case !in.EndDate.After(in.StartDate):
		return apperr.New(apperr.KindValidation, "end date must be after start date")
	case in.CoverageAmount <= 0:
		return apperr.New(apperr.KindValidation, "coverage amount must be positive")
	case in.Premium < 0:
		return apperr.New(apperr.KindValidation, "premium must not be negative")
	case !in.Vehicle.Type.Valid():
		return apperr.New(apperr.KindValidation, "unknown vehicle type %q", in.Vehicle.Type)
	case strings.TrimSpace(in.Vehicle.Make) == "" || strings.TrimSpace(in.Vehicle.Model) == "":
		return apperr.New(apperr.KindValidation, "vehicle make and model are required")
	case in.Vehicle.YearOfPurchase < 1900:
		return apperr.New(apperr.KindValidation, "year of purchase is implausible")
	case strings.TrimSpace(in.Vehicle.VIN) == "":
		return apperr.New(apperr.KindValidation, "vin is required")
	case !in.Evidence.complete():
		return apperr.New(apperr.KindValidation, "all four angle photographs are required")
	}
	return nil
}

// verifyWithCache short-circuits repeated verification of identical evidence
// and declaration. Only clean extractions are cached; failures always re-run.
func (ps *policyService) verifyWithCache(ctx context.Context, angles verification.FourAngles, declared verification.Declared, images []gemini.Image) verification.Result {
	blobs := make([][]byte, len(images))
	for i := range images {
		blobs[i] = images[i].Data
	}
	key := rediscache.DigestKey("verify", []string{
		declared.Make, declared.Model, string(declared.Type), fmt.Sprintf("%d", declared.Year),
	}, blobs)

	var cached verification.Result
	if ps.cache != nil && ps.cache.Get(ctx, key, &cached) && cached.OK {
		ps.log.Debug("Verification served from cache", "key", key)
		return cached
	}

	result := ps.verifier.Verify(ctx, angles, declared)
	if ps.cache != nil && result.OK {
		ps.cache.Put(ctx, key, result)
	}
	return result
}

func (ps *policyService) GetPolicy(ctx context.Context, policyID uuid.UUID) (*types.Policy, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := ps.policyRepo.GetByIDFull(ctx, nil, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "policy not found")
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpRead, authz.Resource{Kind: authz.ResourcePolicy, OwnerID: p.OwnerID}), "policy"); dErr != nil {
		return nil, dErr
	}
	return ps.reconcileExpiry(ctx, p)
}

// reconcileExpiry lazily expires a policy whose coverage window lapsed. The
// lifecycle permits active->expired and inactive->expired only.
func (ps *policyService) reconcileExpiry(ctx context.Context, p *types.Policy) (*types.Policy, error) {
	if !p.ExpiredByDate(ps.now()) {
		return p, nil
	}
	if p.CanTransitionTo(types.PolicyExpired) != nil {
		return p, nil
	}
	if err := ps.policyRepo.UpdateStatus(ctx, nil, p.ID, types.PolicyExpired); err != nil {
		return nil, fmt.Errorf("expire policy: %w", err)
	}
	ps.log.Info("Policy expired by date", "policy_id", p.ID, "number", p.Number)
	p.Status = types.PolicyExpired
	return p, nil
}

func (ps *policyService) ListPolicies(ctx context.Context) ([]*types.Policy, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpList, authz.Resource{Kind: authz.ResourcePolicy}), "policies"); dErr != nil {
		return nil, dErr
	}
	if actor.Role.Privileged() {
		return ps.policyRepo.List(ctx, nil)
	}
	return ps.policyRepo.ListByOwner(ctx, nil, actor.ID)
}

func (ps *policyService) UpdatePolicy(ctx context.Context, policyID uuid.UUID, in UpdatePolicyInput) (*types.Policy, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := ps.policyRepo.GetByID(ctx, nil, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "policy not found")
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpUpdate, authz.Resource{Kind: authz.ResourcePolicy, OwnerID: p.OwnerID}), "policy"); dErr != nil {
		return nil, dErr
	}
	if p.Status == types.PolicyExpired {
		return nil, apperr.New(apperr.KindConflict, "expired policies are immutable")
	}

	fields := map[string]any{}
	if in.Holder != nil {
		if strings.TrimSpace(*in.Holder) == "" {
			return nil, apperr.New(apperr.KindValidation, "holder must not be empty")
		}
		fields["holder"] = strings.TrimSpace(*in.Holder)
	}
	if in.Premium != nil {
		if *in.Premium < 0 {
			return nil, apperr.New(apperr.KindValidation, "premium must not be negative")
		}
		fields["premium"] = *in.Premium
	}
	if in.EndDate != nil {
		if !in.EndDate.After(p.StartDate) {
			return nil, apperr.New(apperr.KindValidation, "end date must be after start date")
		}
		fields["end_date"] = *in.EndDate
	}
	if err := ps.policyRepo.Update(ctx, nil, policyID, fields); err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	return ps.policyRepo.GetByID(ctx, nil, policyID)
}

func (ps *policyService) SetPolicyStatus(ctx context.Context, policyID uuid.UUID, next types.PolicyStatus) (*types.Policy, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := ps.policyRepo.GetByID(ctx, nil, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "policy not found")
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpSetStatus, authz.Resource{Kind: authz.ResourcePolicy, OwnerID: p.OwnerID}), "policy"); dErr != nil {
		return nil, dErr
	}

	if next == types.PolicyActive && p.ExpiredByDate(ps.now()) {
		return nil, apperr.New(apperr.KindConflict, "coverage window has lapsed; policy cannot be activated")
	}
	if tErr := p.CanTransitionTo(next); tErr != nil {
		return nil, apperr.New(apperr.KindConflict, "cannot move policy from %s to %s", p.Status, next)
	}
	if err := ps.policyRepo.UpdateStatus(ctx, nil, policyID, next); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	ps.log.Info("Policy status changed", "policy_id", policyID, "from", p.Status, "to", next, "by", actor.ID)
	p.Status = next
	return p, nil
}

func (ps *policyService) DeletePolicy(ctx context.Context, policyID uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	p, err := ps.policyRepo.GetByID(ctx, nil, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "policy not found")
		}
		return fmt.Errorf("load policy: %w", err)
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpDelete, authz.Resource{Kind: authz.ResourcePolicy, OwnerID: p.OwnerID}), "policy"); dErr != nil {
		return dErr
	}
	if err := ps.policyRepo.Delete(ctx, nil, policyID); err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	ps.log.Info("Policy deleted", "policy_id", policyID, "number", p.Number, "by", actor.ID)
	return nil
}
