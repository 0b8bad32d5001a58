package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InsurableKind tags the variant payload of an insured asset. Only vehicles
// carry an implemented payload today; the remaining kinds are reserved so the
// base table does not need migrating when they land.
type InsurableKind string

const (
	KindVehicle  InsurableKind = "vehicle"
	KindHealth   InsurableKind = "health"
	KindProperty InsurableKind = "property"
)

func (k InsurableKind) Valid() bool {
	switch k {
	case KindVehicle, KindHealth, KindProperty:
		return true
	}
	return false
}

// Insurable is the base record of any asset covered by a policy. The
// kind-specific payload lives in its own table keyed by InsurableID and is
// resolved at read time by switching on Kind.
type Insurable struct {
	ID       uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Kind     InsurableKind `gorm:"not null;index;column:kind" json:"kind"`
	PolicyID uuid.UUID     `gorm:"type:uuid;not null;index;column:policy_id" json:"policy_id"`

	Vehicle *Vehicle `gorm:"foreignKey:InsurableID;constraint:OnDelete:CASCADE" json:"vehicle,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Insurable) TableName() string { return "insurable" }

type VehicleType string

const (
	TwoWheeler   VehicleType = "twowheeler"
	ThreeWheeler VehicleType = "threewheeler"
	FourWheeler  VehicleType = "fourwheeler"
	OtherVehicle VehicleType = "other"
)

func (t VehicleType) Valid() bool {
	switch t {
	case TwoWheeler, ThreeWheeler, FourWheeler, OtherVehicle:
		return true
	}
	return false
}

// Vehicle is the vehicle-kind payload of an Insurable. EvidenceKeys holds
// the storage keys of the four angle photographs used for identity
// verification, in front/rear/left/right order.
type Vehicle struct {
	InsurableID    uuid.UUID      `gorm:"type:uuid;primaryKey;column:insurable_id" json:"insurable_id"`
	Type           VehicleType    `gorm:"not null;column:type" json:"type"`
	Make           string         `gorm:"not null;column:make" json:"make"`
	Model          string         `gorm:"not null;column:model" json:"model"`
	YearOfPurchase int            `gorm:"not null;column:year_of_purchase" json:"year_of_purchase"`
	VIN            string         `gorm:"uniqueIndex;not null;column:vin" json:"vin"`
	RegistrationNo string         `gorm:"column:registration_no" json:"registration_no,omitempty"`
	EvidenceKeys   datatypes.JSON `gorm:"column:evidence_keys" json:"evidence_keys,omitempty"`
	DamageReport   string         `gorm:"column:damage_report" json:"damage_report,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicle" }
