package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/types"
	"github.com/tekmak/kys-backend/internal/utils"
)

const leakTestAlertChannel = "kys:alerts:leak-test"

// AlertService fans failed-test events out to the quality dashboard.
// Publishing is fire-and-forget: a broker failure must never fail the
// save that triggered it.
type AlertService interface {
	PublishLeakTestFailed(ctx context.Context, test *types.TankLeakTest)
}

type alertService struct {
	log    *logger.Logger
	client *redis.Client
}

func NewAlertService(log *logger.Logger) AlertService {
	serviceLog := log.With("service", "AlertService")
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		serviceLog.Warn("REDIS_ADDR not set, leak test alerts disabled")
		return &alertService{log: serviceLog}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", nil),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, nil),
	})
	return &alertService{log: serviceLog, client: client}
}

type leakTestAlert struct {
	TestID               string    `json:"test_id"`
	TankID               string    `json:"tank_id"`
	WelderName           string    `json:"welder_name"`
	QualityInspectorName string    `json:"quality_inspector_name"`
	PressureDrop         float64   `json:"pressure_drop"`
	MaxAllowedDrop       float64   `json:"max_allowed_pressure_drop"`
	TestDate             time.Time `json:"test_date"`
}

func (as *alertService) PublishLeakTestFailed(ctx context.Context, test *types.TankLeakTest) {
	if as.client == nil || test == nil {
		return
	}
	payload, err := json.Marshal(leakTestAlert{
		TestID:               test.ID.String(),
		TankID:               test.TankID,
		WelderName:           test.WelderName,
		QualityInspectorName: test.QualityInspectorName,
		PressureDrop:         test.PressureDrop,
		MaxAllowedDrop:       test.MaxAllowedPressureDrop,
		TestDate:             test.TestDate,
	})
	if err != nil {
		as.log.Warn("Failed to encode leak test alert", "error", err)
		return
	}
	if err := as.client.Publish(ctx, leakTestAlertChannel, payload).Err(); err != nil {
		as.log.Warn("Failed to publish leak test alert", "tank_id", test.TankID, "error", err)
	}
}
