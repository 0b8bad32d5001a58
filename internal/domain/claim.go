package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ClaimStatus string

const (
	ClaimInReview ClaimStatus = "in-review"
	ClaimAccepted ClaimStatus = "accepted"
	ClaimRejected ClaimStatus = "rejected"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimInReview, ClaimAccepted, ClaimRejected:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Claim struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Number   string    `gorm:"uniqueIndex;not null;column:number" json:"number"`
	PolicyID uuid.UUID `gorm:"type:uuid;not null;index;column:policy_id" json:"policy_id"`
	// SubjectID references the insurable the damage was claimed against; it
	// must belong to the same policy, which the claim service enforces before
	// insert.
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index;column:subject_id" json:"subject_id"`

	NarrativeUser   string `gorm:"not null;column:narrative_user" json:"narrative_user"`
	NarrativeSystem string `gorm:"column:narrative_system" json:"narrative_system,omitempty"`

	// Advisory adjudication fields. Nil ApprovableAmount means the claim has
	// not passed adjudication (or adjudication was unavailable).
	Severity         Severity `gorm:"column:severity" json:"severity,omitempty"`
	DamagePercentage *float64 `gorm:"column:damage_percentage" json:"damage_percentage,omitempty"`
	ApprovableAmount *float64 `gorm:"column:approvable_amount" json:"approvable_amount,omitempty"`
	Remarks          string   `gorm:"column:remarks" json:"remarks,omitempty"`

	RequestedAmount float64  `gorm:"not null;column:requested_amount" json:"requested_amount"`
	ApprovedAmount  *float64 `gorm:"column:approved_amount" json:"approved_amount,omitempty"`

	IncidentDate     *time.Time     `gorm:"column:incident_date" json:"incident_date,omitempty"`
	IncidentLocation string         `gorm:"column:incident_location" json:"incident_location,omitempty"`
	EvidenceKeys     datatypes.JSON `gorm:"column:evidence_keys" json:"evidence_keys,omitempty"`

	Status ClaimStatus `gorm:"not null;default:'in-review';column:status" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Claim) TableName() string { return "claim" }

// CanTransitionTo is the claim lifecycle: in-review resolves to accepted or
// rejected and both outcomes are immutable; corrections require a new claim.
// Accepting requires a non-nil approvable amount.
func (c *Claim) CanTransitionTo(next ClaimStatus) error {
	if !next.Valid() || next == c.Status {
		return ErrInvalidTransition
	}
	if c.Status != ClaimInReview {
		return ErrInvalidTransition
	}
	if next == ClaimAccepted && c.ApprovableAmount == nil {
		return ErrApprovableAmountRequired
	}
	return nil
}
