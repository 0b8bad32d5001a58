package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/suresight/suresight-backend/internal/data/sequence"
	"github.com/suresight/suresight-backend/internal/modules/adjudication"
	"github.com/suresight/suresight-backend/internal/platform/gemini"
	"github.com/suresight/suresight-backend/internal/requestdata"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type fakeGemini struct {
	reply string
	err   error
}

func (f *fakeGemini) Interpret(ctx context.Context, instruction string, images []gemini.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeEvidence struct{}

func (fakeEvidence) Upload(ctx context.Context, filename, contentType string, file io.Reader) (string, error) {
	return filename, nil
}

func (fakeEvidence) ResolveImages(ctx context.Context, keys []string) ([]gemini.Image, error) {
	images := make([]gemini.Image, len(keys))
	for i, k := range keys {
		images[i] = gemini.Image{MimeType: "image/jpeg", Data: []byte(k)}
	}
	return images, nil
}

func (fakeEvidence) PublicURL(key string) string { return key }

type stubPolicyRepo struct {
	p *types.Policy
}

func (s *stubPolicyRepo) Create(ctx context.Context, tx *gorm.DB, p *types.Policy) (*types.Policy, error) {
	return p, nil
}

func (s *stubPolicyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Policy, error) {
	if s.p != nil && id == s.p.ID {
		return s.p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPolicyRepo) GetByIDFull(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Policy, error) {
	return s.GetByID(ctx, tx, id)
}

func (s *stubPolicyRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Policy, error) {
	return nil, nil
}

func (s *stubPolicyRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Policy, error) {
	return nil, nil
}

func (s *stubPolicyRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return nil
}

func (s *stubPolicyRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.PolicyStatus) error {
	return nil
}

func (s *stubPolicyRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

func (s *stubPolicyRepo) CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error) {
	return 0, nil
}

type stubInsurableRepo struct {
	asset     *types.Insurable
	vinExists bool
	createErr error
	created   *types.Insurable
}

func (s *stubInsurableRepo) Create(ctx context.Context, tx *gorm.DB, asset *types.Insurable) (*types.Insurable, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = asset
	return asset, nil
}

func (s *stubInsurableRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Insurable, error) {
	if s.asset != nil && id == s.asset.ID {
		return s.asset, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubInsurableRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Insurable, error) {
	return nil, nil
}

func (s *stubInsurableRepo) ListByPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]*types.Insurable, error) {
	return nil, nil
}

func (s *stubInsurableRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Insurable, error) {
	return nil, nil
}

func (s *stubInsurableRepo) UpdateVehicle(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return nil
}

func (s *stubInsurableRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

func (s *stubInsurableRepo) VINExists(ctx context.Context, tx *gorm.DB, vin string) (bool, error) {
	return s.vinExists, nil
}

type stubClaimRepo struct {
	created *types.Claim
}

func (s *stubClaimRepo) Create(ctx context.Context, tx *gorm.DB, c *types.Claim) (*types.Claim, error) {
	s.created = c
	return c, nil
}

func (s *stubClaimRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Claim, error) {
	if s.created != nil && id == s.created.ID {
		return s.created, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubClaimRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Claim, error) {
	return nil, nil
}

func (s *stubClaimRepo) ListByPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]*types.Claim, error) {
	return nil, nil
}

func (s *stubClaimRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Claim, error) {
	return nil, nil
}

func (s *stubClaimRepo) UpdateDecision(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.ClaimStatus, approvedAmount *float64) error {
	return nil
}

func (s *stubClaimRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

func (s *stubClaimRepo) CountNumbersWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (int64, error) {
	return 0, nil
}

func serviceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func actorContext(userID uuid.UUID, role types.Role) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: userID,
		Role:   role,
	})
}

func activePolicy(owner uuid.UUID) *types.Policy {
	return &types.Policy{
		ID:             uuid.New(),
		Number:         "POL-2024071501",
		Holder:         "R. Sharma",
		OwnerID:        owner,
		StartDate:      time.Now().Add(-24 * time.Hour),
		EndDate:        time.Now().Add(365 * 24 * time.Hour),
		Premium:        1200,
		CoverageAmount: 30000,
		Status:         types.PolicyActive,
	}
}

func newClaimFixture(t *testing.T, interpreter gemini.Client) (ClaimService, *stubClaimRepo, *types.Policy, *types.Insurable, uuid.UUID) {
	t.Helper()
	owner := uuid.New()
	p := activePolicy(owner)
	subject := &types.Insurable{ID: uuid.New(), Kind: types.KindVehicle, PolicyID: p.ID}

	log := testLogger(t)
	policyRepo := &stubPolicyRepo{p: p}
	insurableRepo := &stubInsurableRepo{asset: subject}
	claimRepo := &stubClaimRepo{}
	adjudicator := adjudication.NewAdjudicator(interpreter, log)
	sequences := sequence.NewGenerator(policyRepo, claimRepo, log)

	svc := NewClaimService(serviceTestDB(t), log, claimRepo, policyRepo, insurableRepo,
		fakeEvidence{}, adjudicator, sequences, nil, nil, nil)
	return svc, claimRepo, p, subject, owner
}

func TestCreateClaim_InterpreterFailureStillFilesClaim(t *testing.T) {
	svc, claimRepo, p, subject, owner := newClaimFixture(t, &fakeGemini{err: errors.New("deadline exceeded")})

	c, err := svc.CreateClaim(actorContext(owner, types.RoleBasic), CreateClaimInput{
		PolicyID:        p.ID,
		SubjectID:       subject.ID,
		Narrative:       "rear bumper crushed in parking lot collision",
		RequestedAmount: 12000,
		EvidenceKeys:    []string{"20240715/a.jpg"},
	})
	if err != nil {
		t.Fatalf("interpreter failure must not block filing: %v", err)
	}
	if c.Status != types.ClaimInReview {
		t.Fatalf("status = %q, want in-review", c.Status)
	}
	if c.ApprovableAmount != nil || c.DamagePercentage != nil {
		t.Fatalf("advisory fields must stay nil without a verdict")
	}
	if c.Remarks != "automated adjudication unavailable; manual review required" {
		t.Fatalf("remarks = %q", c.Remarks)
	}
	if !strings.HasPrefix(c.Number, "CLM-") {
		t.Fatalf("number = %q", c.Number)
	}
	if claimRepo.created == nil {
		t.Fatalf("claim was never persisted")
	}
}

func TestCreateClaim_VerdictIsRecordedAndCapped(t *testing.T) {
	svc, _, p, subject, owner := newClaimFixture(t, &fakeGemini{
		reply: `{"damage_analysis":"rear bumper deformation","damage_percentage":35,"severity_level":"Moderate","approvable_amount":45000,"reason_for_approval":"consistent with repair cost","remarks":""}`,
	})

	c, err := svc.CreateClaim(actorContext(owner, types.RoleBasic), CreateClaimInput{
		PolicyID:        p.ID,
		SubjectID:       subject.ID,
		Narrative:       "rear bumper crushed in parking lot collision",
		RequestedAmount: 45000,
		EvidenceKeys:    []string{"20240715/a.jpg"},
	})
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}
	if c.Severity != types.SeverityModerate {
		t.Fatalf("severity = %q", c.Severity)
	}
	if c.ApprovableAmount == nil || *c.ApprovableAmount != p.CoverageAmount {
		t.Fatalf("approvable amount must be capped at coverage, got %v", c.ApprovableAmount)
	}
	if c.DamagePercentage == nil || *c.DamagePercentage != 35 {
		t.Fatalf("damage percentage = %v", c.DamagePercentage)
	}
}
