package domain

import (
	"time"

	"github.com/google/uuid"
)

type PolicyStatus string

const (
	PolicyUnderReview PolicyStatus = "under-review"
	PolicyActive      PolicyStatus = "active"
	PolicyInactive    PolicyStatus = "inactive"
	PolicyExpired     PolicyStatus = "expired"
)

func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyUnderReview, PolicyActive, PolicyInactive, PolicyExpired:
		return true
	}
	return false
}

type Policy struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Number         string       `gorm:"uniqueIndex;not null;column:number" json:"number"`
	Holder         string       `gorm:"not null;column:holder" json:"holder"`
	OwnerID        uuid.UUID    `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	StartDate      time.Time    `gorm:"not null;column:start_date" json:"start_date"`
	EndDate        time.Time    `gorm:"not null;column:end_date" json:"end_date"`
	Premium        float64      `gorm:"not null;column:premium" json:"premium"`
	CoverageAmount float64      `gorm:"not null;column:coverage_amount" json:"coverage_amount"`
	Status         PolicyStatus `gorm:"not null;default:'under-review';column:status" json:"status"`

	Owner      *User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Insurables []*Insurable `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"insurables,omitempty"`
	Claims     []*Claim     `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"claims,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Policy) TableName() string { return "policy" }

// CanTransitionTo is the policy lifecycle: under-review is promoted to
// active, active and inactive toggle, either may expire, and expired is
// terminal. Who may drive a transition is the authorization gate's concern,
// not the lifecycle's.
func (p *Policy) CanTransitionTo(next PolicyStatus) error {
	if !next.Valid() || next == p.Status {
		return ErrInvalidTransition
	}
	switch p.Status {
	case PolicyUnderReview:
		if next == PolicyActive {
			return nil
		}
	case PolicyActive:
		if next == PolicyInactive || next == PolicyExpired {
			return nil
		}
	case PolicyInactive:
		if next == PolicyActive || next == PolicyExpired {
			return nil
		}
	case PolicyExpired:
		// terminal
	}
	return ErrInvalidTransition
}

// ExpiredByDate reports whether the coverage window has lapsed at ref.
func (p *Policy) ExpiredByDate(ref time.Time) bool {
	return !p.EndDate.IsZero() && p.EndDate.Before(ref)
}
