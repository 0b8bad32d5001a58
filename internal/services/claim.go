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
	"github.com/suresight/suresight-backend/internal/data/repos/claim"
	"github.com/suresight/suresight-backend/internal/data/repos/insurable"
	"github.com/suresight/suresight-backend/internal/data/repos/policy"
	"github.com/suresight/suresight-backend/internal/data/sequence"
	"github.com/suresight/suresight-backend/internal/modules/adjudication"
	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/docai"
	"github.com/suresight/suresight-backend/internal/platform/gcs"
	"github.com/suresight/suresight-backend/internal/platform/visionhints"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type CreateClaimInput struct {
	PolicyID         uuid.UUID  `json:"policy_id"`
	SubjectID        uuid.UUID  `json:"subject_id"`
	Narrative        string     `json:"narrative"`
	RequestedAmount  float64    `json:"requested_amount"`
	IncidentDate     *time.Time `json:"incident_date,omitempty"`
	IncidentLocation string     `json:"incident_location,omitempty"`
	// EvidenceKeys are damage photograph keys; AttachmentKeys are supporting
	// documents (repair estimates, police reports) whose extracted text is
	// folded into the narrative before adjudication.
	EvidenceKeys   []string `json:"evidence_keys"`
	AttachmentKeys []string `json:"attachment_keys,omitempty"`
}

type DecideClaimInput struct {
	Status         types.ClaimStatus `json:"status"`
	ApprovedAmount *float64          `json:"approved_amount,omitempty"`
}

type ClaimService interface {
	// CreateClaim files a claim and runs advisory adjudication. Adjudication
	// failure never blocks filing; the claim is created without an approvable
	// amount and awaits manual review.
	CreateClaim(ctx context.Context, in CreateClaimInput) (*types.Claim, error)
	GetClaim(ctx context.Context, claimID uuid.UUID) (*types.Claim, error)
	ListClaims(ctx context.Context) ([]*types.Claim, error)
	ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*types.Claim, error)
	DecideClaim(ctx context.Context, claimID uuid.UUID, in DecideClaimInput) (*types.Claim, error)
	DeleteClaim(ctx context.Context, claimID uuid.UUID) error
}

type claimService struct {
	db            *gorm.DB
	log           *logger.Logger
	claimRepo     claim.ClaimRepo
	policyRepo    policy.PolicyRepo
	insurableRepo insurable.InsurableRepo
	evidence      EvidenceService
	adjudicator   *adjudication.Adjudicator
	sequences     *sequence.Generator
	hints         visionhints.Service
	documents     docai.Service
	bucketService gcs.BucketService
	now           func() time.Time
}

func NewClaimService(
	db *gorm.DB,
	log *logger.Logger,
	claimRepo claim.ClaimRepo,
	policyRepo policy.PolicyRepo,
	insurableRepo insurable.InsurableRepo,
	evidence EvidenceService,
	adjudicator *adjudication.Adjudicator,
	sequences *sequence.Generator,
	hints visionhints.Service,
	documents docai.Service,
	bucketService gcs.BucketService,
) ClaimService {
	return &claimService{
		db:            db,
		log:           log.With("service", "ClaimService"),
		claimRepo:     claimRepo,
		policyRepo:    policyRepo,
		insurableRepo: insurableRepo,
		evidence:      evidence,
		adjudicator:   adjudicator,
		sequences:     sequences,
		hints:         hints,
		documents:     documents,
		bucketService: bucketService,
		now:           time.Now,
	}
}

func (cs *claimService) CreateClaim(ctx context.Context, in CreateClaimInput) (*types.Claim, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := cs.policyRepo.GetByID(ctx, nil, in.PolicyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "policy not found")
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpCreate, authz.Resource{Kind: authz.ResourceClaim, OwnerID: p.OwnerID}), "claim"); dErr != nil {
		return nil, dErr
	}

	switch {
	case p.Status != types.PolicyActive:
		return nil, apperr.New(apperr.KindConflict, "claims may only be filed against active policies")
	case strings.TrimSpace(in.Narrative) == "":
		return nil, apperr.New(apperr.KindValidation, "damage narrative is required")
	case in.RequestedAmount <= 0:
		return nil, apperr.New(apperr.KindValidation, "requested amount must be positive")
	case len(in.EvidenceKeys) == 0:
		return nil, apperr.New(apperr.KindValidation, "at least one damage photograph is required")
	}

	subject, err := cs.insurableRepo.GetByID(ctx, nil, in.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "insured asset not found")
		}
		return nil, fmt.Errorf("load insured asset: %w", err)
	}
	if subject.PolicyID != p.ID {
		return nil, apperr.New(apperr.KindValidation, "insured asset does not belong to the policy")
	}

	images, err := cs.evidence.ResolveImages(ctx, in.EvidenceKeys)
	if err != nil {
		return nil, err
	}

	narrative := strings.TrimSpace(in.Narrative)
	if extra := cs.attachmentText(ctx, in.AttachmentKeys); extra != "" {
		narrative = narrative + "\n\nSupporting documents:\n" + extra
	}

	evidenceJSON, err := json.Marshal(in.EvidenceKeys)
	if err != nil {
		return nil, fmt.Errorf("encode evidence keys: %w", err)
	}

	created := &types.Claim{
		ID:               uuid.New(),
		PolicyID:         p.ID,
		SubjectID:        subject.ID,
		NarrativeUser:    strings.TrimSpace(in.Narrative),
		RequestedAmount:  in.RequestedAmount,
		IncidentDate:     in.IncidentDate,
		IncidentLocation: strings.TrimSpace(in.IncidentLocation),
		EvidenceKeys:     datatypes.JSON(evidenceJSON),
		Status:           types.ClaimInReview,
	}

	// Advisory adjudication. Any failure downgrades to a claim without an
	// approvable amount; the failure kind is recorded in the remarks.
	var labelHints []string
	if cs.hints != nil {
		blobs := make([][]byte, len(images))
		for i := range images {
			blobs[i] = images[i].Data
		}
		labelHints = cs.hints.Hints(ctx, blobs)
	}
	verdict, adjErr := cs.adjudicator.Adjudicate(ctx, adjudication.Input{
		Narrative:       narrative,
		RequestedAmount: in.RequestedAmount,
		CoverageCap:     p.CoverageAmount,
		Images:          images,
		Hints:           labelHints,
	})
	if adjErr != nil {
		cs.log.Warn("Adjudication unavailable, filing claim without verdict",
			"policy_id", p.ID, "error", adjErr)
		created.Remarks = "automated adjudication unavailable; manual review required"
	} else {
		pct := verdict.DamagePercentage
		amount := verdict.ApprovableAmount
		created.Severity = verdict.Severity
		created.DamagePercentage = &pct
		created.ApprovableAmount = &amount
		created.NarrativeSystem = verdict.Analysis
		created.Remarks = joinNonEmpty(verdict.Justification, verdict.Remarks)
	}

	number, err := cs.sequences.CreateWithNumber(ctx, cs.db, sequence.KindClaim, cs.now(), func(tx *gorm.DB, number string) error {
		created.Number = number
		_, cErr := cs.claimRepo.Create(ctx, tx, created)
		return cErr
	})
	if err != nil {
		return nil, err
	}

	cs.log.Info("Claim filed", "claim_id", created.ID, "number", number,
		"policy_id", p.ID, "adjudicated", adjErr == nil)
	return created, nil
}

// attachmentText pulls stored attachments and extracts their text. Failures
// are logged and skipped; attachments never block a filing.
func (cs *claimService) attachmentText(ctx context.Context, keys []string) string {
	if cs.documents == nil || cs.bucketService == nil || len(keys) == 0 {
		return ""
	}
	var parts []string
	for _, key := range keys {
		obj, err := cs.bucketService.FetchObject(ctx, gcs.BucketCategoryDocument, key)
		if err != nil {
			cs.log.Warn("Attachment could not be fetched", "key", key, "error", err)
			continue
		}
		text, err := cs.documents.ExtractText(ctx, obj.Data, obj.ContentType)
		if err != nil {
			cs.log.Warn("Attachment text extraction failed", "key", key, "error", err)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, " | ")
}

func (cs *claimService) GetClaim(ctx context.Context, claimID uuid.UUID) (*types.Claim, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, p, err := cs.loadClaimWithPolicy(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpRead, authz.Resource{Kind: authz.ResourceClaim, OwnerID: p.OwnerID}), "claim"); dErr != nil {
		return nil, dErr
	}
	return c, nil
}

func (cs *claimService) loadClaimWithPolicy(ctx context.Context, claimID uuid.UUID) (*types.Claim, *types.Policy, error) {
	c, err := cs.claimRepo.GetByID(ctx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "claim not found")
		}
		return nil, nil, fmt.Errorf("load claim: %w", err)
	}
	p, err := cs.policyRepo.GetByID(ctx, nil, c.PolicyID)
	if err != nil {
		return nil, nil, fmt.Errorf("load claim policy: %w", err)
	}
	return c, p, nil
}

func (cs *claimService) ListClaims(ctx context.Context) ([]*types.Claim, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpList, authz.Resource{Kind: authz.ResourceClaim}), "claims"); dErr != nil {
		return nil, dErr
	}
	if actor.Role.Privileged() {
		return cs.claimRepo.List(ctx, nil)
	}
	return cs.claimRepo.ListByOwner(ctx, nil, actor.ID)
}

func (cs *claimService) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*types.Claim, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := cs.policyRepo.GetByID(ctx, nil, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "policy not found")
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpRead, authz.Resource{Kind: authz.ResourcePolicy, OwnerID: p.OwnerID}), "policy"); dErr != nil {
		return nil, dErr
	}
	return cs.claimRepo.ListByPolicy(ctx, nil, policyID)
}

func (cs *claimService) DecideClaim(ctx context.Context, claimID uuid.UUID, in DecideClaimInput) (*types.Claim, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, p, err := cs.loadClaimWithPolicy(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpDecide, authz.Resource{Kind: authz.ResourceClaim, OwnerID: p.OwnerID}), "claim"); dErr != nil {
		return nil, dErr
	}

	if in.Status != types.ClaimAccepted && in.Status != types.ClaimRejected {
		return nil, apperr.New(apperr.KindValidation, "decision must be accepted or rejected")
	}
	if tErr := c.CanTransitionTo(in.Status); tErr != nil {
		if errors.Is(tErr, types.ErrApprovableAmountRequired) {
			return nil, apperr.New(apperr.KindConflict, "claim has no approvable amount; it cannot be accepted")
		}
		return nil, apperr.New(apperr.KindConflict, "cannot move claim from %s to %s", c.Status, in.Status)
	}

	var approved *float64
	if in.Status == types.ClaimAccepted {
		// Default payout is the adjudicated approvable amount; a reviewer may
		// override within [0, coverage].
		amount := *c.ApprovableAmount
		if in.ApprovedAmount != nil {
			amount = *in.ApprovedAmount
		}
		if amount < 0 || amount > p.CoverageAmount {
			return nil, apperr.New(apperr.KindValidation, "approved amount must be within coverage")
		}
		approved = &amount
	}

	if err := cs.claimRepo.UpdateDecision(ctx, nil, claimID, in.Status, approved); err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}
	cs.log.Info("Claim decided", "claim_id", claimID, "number", c.Number,
		"status", in.Status, "by", actor.ID)
	c.Status = in.Status
	c.ApprovedAmount = approved
	return c, nil
}

func (cs *claimService) DeleteClaim(ctx context.Context, claimID uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	c, p, err := cs.loadClaimWithPolicy(ctx, claimID)
	if err != nil {
		return err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpDelete, authz.Resource{Kind: authz.ResourceClaim, OwnerID: p.OwnerID}), "claim"); dErr != nil {
		return dErr
	}
	if c.Status != types.ClaimInReview {
		return apperr.New(apperr.KindConflict, "decided claims are immutable")
	}
	if err := cs.claimRepo.Delete(ctx, nil, claimID); err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	cs.log.Info("Claim deleted", "claim_id", claimID, "number", c.Number, "by", actor.ID)
	return nil
}
