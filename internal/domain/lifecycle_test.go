package domain

import (
	"errors"
	"testing"
	"time"
)

func TestPolicyCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to PolicyStatus
		ok       bool
	}{
		{PolicyUnderReview, PolicyActive, true},
		{PolicyUnderReview, PolicyInactive, false},
		{PolicyUnderReview, PolicyExpired, false},
		{PolicyActive, PolicyInactive, true},
		{PolicyActive, PolicyExpired, true},
		{PolicyActive, PolicyUnderReview, false},
		{PolicyInactive, PolicyActive, true},
		{PolicyInactive, PolicyExpired, true},
		{PolicyExpired, PolicyActive, false},
		{PolicyExpired, PolicyInactive, false},
		{PolicyExpired, PolicyUnderReview, false},
	}
	for _, tc := range cases {
		p := &Policy{Status: tc.from}
		err := p.CanTransitionTo(tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestPolicyCanTransitionTo_RejectsSelfAndInvalid(t *testing.T) {
	p := &Policy{Status: PolicyActive}
	if err := p.CanTransitionTo(PolicyActive); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("self transition: got %v", err)
	}
	if err := p.CanTransitionTo(PolicyStatus("archived")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("invalid status: got %v", err)
	}
}

func TestPolicyExpiredByDate(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	p := &Policy{EndDate: now.Add(-time.Hour)}
	if !p.ExpiredByDate(now) {
		t.Fatalf("past end date must report expired")
	}
	p = &Policy{EndDate: now.Add(time.Hour)}
	if p.ExpiredByDate(now) {
		t.Fatalf("future end date must not report expired")
	}
	p = &Policy{}
	if p.ExpiredByDate(now) {
		t.Fatalf("zero end date must not report expired")
	}
}

func TestClaimCanTransitionTo_AcceptRequiresApprovableAmount(t *testing.T) {
	c := &Claim{Status: ClaimInReview}
	if err := c.CanTransitionTo(ClaimAccepted); !errors.Is(err, ErrApprovableAmountRequired) {
		t.Fatalf("accept without advisory amount: got %v", err)
	}
	if err := c.CanTransitionTo(ClaimRejected); err != nil {
		t.Fatalf("reject without advisory amount must be allowed, got %v", err)
	}

	amt := 12000.0
	c.ApprovableAmount = &amt
	if err := c.CanTransitionTo(ClaimAccepted); err != nil {
		t.Fatalf("accept with advisory amount: got %v", err)
	}
}

func TestClaimCanTransitionTo_DecidedClaimsAreImmutable(t *testing.T) {
	amt := 5000.0
	for _, decided := range []ClaimStatus{ClaimAccepted, ClaimRejected} {
		c := &Claim{Status: decided, ApprovableAmount: &amt}
		for _, next := range []ClaimStatus{ClaimInReview, ClaimAccepted, ClaimRejected} {
			if next == decided {
				continue
			}
			if err := c.CanTransitionTo(next); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", decided, next, err)
			}
		}
	}
}
