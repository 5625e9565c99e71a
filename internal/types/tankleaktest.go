package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	LeakTestStatusPending = "PENDING"
	LeakTestStatusPassed  = "PASSED"
	LeakTestStatusFailed  = "FAILED"
)

// TankLeakTest is one physical pressure test of a welded tank.
// PressureDrop and Status are derived; they are never accepted from a
// caller. Deletes are hard deletes, there is no soft-delete column.
type TankLeakTest struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TankID string    `gorm:"not null;column:tank_id;index" json:"tank_id"`

	TankType     string `gorm:"not null;column:tank_type" json:"tank_type"`
	TestType     string `gorm:"not null;column:test_type" json:"test_type"`
	MaterialType string `gorm:"not null;column:material_type" json:"material_type"`

	WelderID   uuid.UUID `gorm:"type:uuid;not null;column:welder_id;index" json:"welder_id"`
	Welder     *User     `gorm:"foreignKey:WelderID;references:ID" json:"-"`
	WelderName string    `gorm:"not null;column:welder_name" json:"welder_name"`

	QualityInspectorID   uuid.UUID `gorm:"type:uuid;not null;column:quality_inspector_id;index" json:"quality_inspector_id"`
	QualityInspector     *User     `gorm:"foreignKey:QualityInspectorID;references:ID" json:"-"`
	QualityInspectorName string    `gorm:"not null;column:quality_inspector_name" json:"quality_inspector_name"`

	TestDate time.Time `gorm:"not null;column:test_date;index" json:"test_date"`

	TestPressure float64 `gorm:"not null;column:test_pressure" json:"test_pressure"`
	PressureUnit string  `gorm:"not null;column:pressure_unit" json:"pressure_unit"`
	TestDuration float64 `gorm:"not null;column:test_duration" json:"test_duration"`
	DurationUnit string  `gorm:"not null;column:duration_unit" json:"duration_unit"`

	InitialPressure        float64 `gorm:"not null;column:initial_pressure" json:"initial_pressure"`
	FinalPressure          float64 `gorm:"not null;column:final_pressure" json:"final_pressure"`
	PressureDrop           float64 `gorm:"not null;column:pressure_drop" json:"pressure_drop"`
	MaxAllowedPressureDrop float64 `gorm:"not null;column:max_allowed_pressure_drop" json:"max_allowed_pressure_drop"`

	Temperature     float64 `gorm:"not null;column:temperature" json:"temperature"`
	TemperatureUnit string  `gorm:"not null;column:temperature_unit" json:"temperature_unit"`
	Humidity        float64 `gorm:"not null;column:humidity" json:"humidity"`

	Status string `gorm:"not null;default:'PENDING';column:status;index" json:"status"`

	Notes     string         `gorm:"column:notes" json:"notes,omitempty"`
	ImageURLs datatypes.JSON `gorm:"column:image_urls" json:"image_urls,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TankLeakTest) TableName() string {
	return "tank_leak_test"
}
