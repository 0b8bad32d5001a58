package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/suresight/suresight-backend/internal/modules/verification"
	"github.com/suresight/suresight-backend/internal/pkg/apperr"

	types "github.com/suresight/suresight-backend/internal/domain"
)

func matchingVehicleReply() string {
	return `{"make":"Toyota","model":"Corolla","Manufacturing_year_range":"2015-2020","vehicle_type":"fourwheeler","damages":""}`
}

func addVehicleInput(policyID uuid.UUID) AddVehicleInput {
	return AddVehicleInput{
		PolicyID: policyID,
		Vehicle: VehicleDeclaration{
			Type:           types.FourWheeler,
			Make:           "Toyota",
			Model:          "Corolla",
			YearOfPurchase: 2018,
			VIN:            "1HGBH41JXMN109186",
		},
		Evidence: AngleEvidence{
			Front: "20240715/f.jpg",
			Rear:  "20240715/r.jpg",
			Left:  "20240715/l.jpg",
			Right: "20240715/g.jpg",
		},
	}
}

func TestAddVehicle_VINRaceIsConflict(t *testing.T) {
	owner := uuid.New()
	p := activePolicy(owner)
	log := testLogger(t)
	policyRepo := &stubPolicyRepo{p: p}
	// VINExists said no, but a concurrent insert won; the store reports the
	// unique violation at create time.
	insurableRepo := &stubInsurableRepo{createErr: errors.New("UNIQUE constraint failed: vehicle.vin")}
	verifier := verification.NewVerifier(&fakeGemini{reply: matchingVehicleReply()}, log)
	svc := NewInsurableService(serviceTestDB(t), log, policyRepo, insurableRepo, fakeEvidence{}, verifier)

	_, err := svc.AddVehicle(actorContext(owner, types.RoleBasic), addVehicleInput(p.ID))
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on a vin race, got %v", err)
	}
}

func TestAddVehicle_ImplausibleYearIsRejected(t *testing.T) {
	owner := uuid.New()
	p := activePolicy(owner)
	log := testLogger(t)
	policyRepo := &stubPolicyRepo{p: p}
	insurableRepo := &stubInsurableRepo{}
	verifier := verification.NewVerifier(&fakeGemini{err: errors.New("must not be reached")}, log)
	svc := NewInsurableService(serviceTestDB(t), log, policyRepo, insurableRepo, fakeEvidence{}, verifier)

	in := addVehicleInput(p.ID)
	in.Vehicle.YearOfPurchase = 1850
	_, err := svc.AddVehicle(actorContext(owner, types.RoleBasic), in)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddVehicle_VerifiedVehicleIsPersisted(t *testing.T) {
	owner := uuid.New()
	p := activePolicy(owner)
	log := testLogger(t)
	policyRepo := &stubPolicyRepo{p: p}
	insurableRepo := &stubInsurableRepo{}
	verifier := verification.NewVerifier(&fakeGemini{reply: matchingVehicleReply()}, log)
	svc := NewInsurableService(serviceTestDB(t), log, policyRepo, insurableRepo, fakeEvidence{}, verifier)

	asset, err := svc.AddVehicle(actorContext(owner, types.RoleBasic), addVehicleInput(p.ID))
	if err != nil {
		t.Fatalf("add vehicle: %v", err)
	}
	if insurableRepo.created == nil {
		t.Fatalf("vehicle was never persisted")
	}
	if asset.Vehicle == nil || asset.Vehicle.VIN != "1HGBH41JXMN109186" {
		t.Fatalf("unexpected vehicle payload: %+v", asset.Vehicle)
	}
	if asset.PolicyID != p.ID {
		t.Fatalf("asset bound to wrong policy")
	}
}
