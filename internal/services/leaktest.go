package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tekmak/kys-backend/internal/apierr"
	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/repos"
	"github.com/tekmak/kys-backend/internal/requestdata"
	"github.com/tekmak/kys-backend/internal/types"
)

// LeakTestConfig supplies the defaults the source system kept as
// mutable globals. They are explicit here so the service stays
// testable.
type LeakTestConfig struct {
	DefaultPressureUnit           string
	DefaultDurationUnit           string
	DefaultMaxAllowedPressureDrop float64
}

type CreateLeakTestInput struct {
	TankID       string
	TankType     string
	TestType     string
	MaterialType string

	WelderID uuid.UUID
	TestDate *time.Time

	TestPressure *float64
	PressureUnit string
	TestDuration *float64
	DurationUnit string

	InitialPressure        *float64
	FinalPressure          *float64
	MaxAllowedPressureDrop *float64

	Temperature     *float64
	TemperatureUnit string
	Humidity        *float64

	Notes     string
	ImageURLs []string
}

type UpdateLeakTestInput struct {
	InitialPressure        *float64
	FinalPressure          *float64
	MaxAllowedPressureDrop *float64
	Notes                  *string
	ImageURLs              []string
}

type LeakTestPage struct {
	Data  []*types.TankLeakTest `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Pages int                   `json:"pages"`
}

const (
	defaultLeakTestPage     = 1
	defaultLeakTestPageSize = 10
	maxLeakTestPageSize     = 100
)

type LeakTestService interface {
	Create(ctx context.Context, input CreateLeakTestInput) (*types.TankLeakTest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.TankLeakTest, error)
	List(ctx context.Context, filter repos.TankLeakTestFilter, page, pageSize int) (*LeakTestPage, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateLeakTestInput) (*types.TankLeakTest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AppendImageURL(ctx context.Context, id uuid.UUID, url string) (*types.TankLeakTest, error)
}

type leakTestService struct {
	db           *gorm.DB
	log          *logger.Logger
	cfg          LeakTestConfig
	leakTestRepo repos.TankLeakTestRepo
	userRepo     repos.UserRepo
	alertService AlertService
}

func NewLeakTestService(
	db *gorm.DB,
	log *logger.Logger,
	cfg LeakTestConfig,
	leakTestRepo repos.TankLeakTestRepo,
	userRepo repos.UserRepo,
	alertService AlertService,
) LeakTestService {
	serviceLog := log.With("service", "LeakTestService")
	return &leakTestService{
		db:           db,
		log:          serviceLog,
		cfg:          cfg,
		leakTestRepo: leakTestRepo,
		userRepo:     userRepo,
		alertService: alertService,
	}
}

func (ls *leakTestService) Create(ctx context.Context, input CreateLeakTestInput) (*types.TankLeakTest, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Validation("missing_inspector", fmt.Errorf("caller identity not set, cannot record inspector"))
	}

	ls.applyDefaults(&input)
	if vErr := validateCreateLeakTest(input); vErr != nil {
		return nil, vErr
	}

	var created *types.TankLeakTest
	err := ls.inTransaction(ctx, func(tx *gorm.DB) error {
		inspector, welder, rErr := ls.resolveNames(ctx, tx, rd.UserID, input.WelderID)
		if rErr != nil {
			return rErr
		}

		pressureDrop, status := EvaluateLeakTest(*input.InitialPressure, *input.FinalPressure, *input.MaxAllowedPressureDrop)

		testDate := time.Now()
		if input.TestDate != nil {
			testDate = *input.TestDate
		}

		imageURLs, mErr := marshalImageURLs(input.ImageURLs)
		if mErr != nil {
			return apierr.Validation("invalid_image_urls", mErr)
		}

		test := &types.TankLeakTest{
			ID:                     uuid.New(),
			TankID:                 input.TankID,
			TankType:               input.TankType,
			TestType:               input.TestType,
			MaterialType:           input.MaterialType,
			WelderID:               welder.ID,
			WelderName:             welder.DisplayName(),
			QualityInspectorID:     inspector.ID,
			QualityInspectorName:   inspector.DisplayName(),
			TestDate:               testDate,
			TestPressure:           *input.TestPressure,
			PressureUnit:           input.PressureUnit,
			TestDuration:           *input.TestDuration,
			DurationUnit:           input.DurationUnit,
			InitialPressure:        *input.InitialPressure,
			FinalPressure:          *input.FinalPressure,
			PressureDrop:           pressureDrop,
			MaxAllowedPressureDrop: *input.MaxAllowedPressureDrop,
			Temperature:            *input.Temperature,
			TemperatureUnit:        input.TemperatureUnit,
			Humidity:               *input.Humidity,
			Status:                 status,
			Notes:                  input.Notes,
			ImageURLs:              imageURLs,
		}
		createdTests, cErr := ls.leakTestRepo.Create(ctx, tx, []*types.TankLeakTest{test})
		if cErr != nil {
			return apierr.Persistence("leak_test_create_failed", cErr)
		}
		created = createdTests[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	ls.notifyIfFailed(ctx, created)
	return created, nil
}

func (ls *leakTestService) GetByID(ctx context.Context, id uuid.UUID) (*types.TankLeakTest, error) {
	test, err := ls.leakTestRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.Persistence("leak_test_fetch_failed", err)
	}
	if test == nil {
		return nil, apierr.NotFound("leak_test_not_found", fmt.Errorf("tank leak test %s does not exist", id))
	}
	return test, nil
}

func (ls *leakTestService) List(ctx context.Context, filter repos.TankLeakTestFilter, page, pageSize int) (*LeakTestPage, error) {
	if page < 1 {
		page = defaultLeakTestPage
	}
	if pageSize < 1 {
		pageSize = defaultLeakTestPageSize
	}
	if pageSize > maxLeakTestPageSize {
		pageSize = maxLeakTestPageSize
	}

	tests, total, err := ls.leakTestRepo.List(ctx, nil, filter, page, pageSize)
	if err != nil {
		return nil, apierr.Persistence("leak_test_list_failed", err)
	}
	if tests == nil {
		tests = []*types.TankLeakTest{}
	}
	return &LeakTestPage{
		Data:  tests,
		Total: total,
		Page:  page,
		Pages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (ls *leakTestService) Update(ctx context.Context, id uuid.UUID, input UpdateLeakTestInput) (*types.TankLeakTest, error) {
	var updated *types.TankLeakTest
	err := ls.inTransaction(ctx, func(tx *gorm.DB) error {
		stored, gErr := ls.leakTestRepo.GetByID(ctx, tx, id)
		if gErr != nil {
			return apierr.Persistence("leak_test_fetch_failed", gErr)
		}
		if stored == nil {
			return apierr.NotFound("leak_test_not_found", fmt.Errorf("tank leak test %s does not exist", id))
		}

		updates := map[string]interface{}{}
		if input.InitialPressure != nil {
			updates["initial_pressure"] = *input.InitialPressure
		}
		if input.FinalPressure != nil {
			updates["final_pressure"] = *input.FinalPressure
		}
		if input.MaxAllowedPressureDrop != nil {
			updates["max_allowed_pressure_drop"] = *input.MaxAllowedPressureDrop
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if input.ImageURLs != nil {
			imageURLs, mErr := marshalImageURLs(input.ImageURLs)
			if mErr != nil {
				return apierr.Validation("invalid_image_urls", mErr)
			}
			updates["image_urls"] = imageURLs
		}

		if input.InitialPressure != nil || input.FinalPressure != nil || input.MaxAllowedPressureDrop != nil {
			mergedInitial := mergeFloat(input.InitialPressure, stored.InitialPressure)
			mergedFinal := mergeFloat(input.FinalPressure, stored.FinalPressure)
			mergedMax := mergeFloat(input.MaxAllowedPressureDrop, stored.MaxAllowedPressureDrop)
			drop, status := RederivePressure(mergedInitial, mergedFinal, mergedMax)
			if drop != nil {
				updates["pressure_drop"] = *drop
			}
			if status != nil {
				updates["status"] = *status
			}
		}

		if len(updates) == 0 {
			updated = stored
			return nil
		}
		updates["updated_at"] = time.Now()

		affected, uErr := ls.leakTestRepo.UpdateFields(ctx, tx, id, updates)
		if uErr != nil {
			return apierr.Persistence("leak_test_update_failed", uErr)
		}
		if affected == 0 {
			return apierr.NotFound("leak_test_not_found", fmt.Errorf("tank leak test %s does not exist", id))
		}

		reloaded, rErr := ls.leakTestRepo.GetByID(ctx, tx, id)
		if rErr != nil {
			return apierr.Persistence("leak_test_fetch_failed", rErr)
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	ls.notifyIfFailed(ctx, updated)
	return updated, nil
}

func (ls *leakTestService) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := ls.leakTestRepo.FullDeleteByID(ctx, nil, id)
	if err != nil {
		return apierr.Persistence("leak_test_delete_failed", err)
	}
	if affected == 0 {
		return apierr.NotFound("leak_test_not_found", fmt.Errorf("tank leak test %s does not exist", id))
	}
	return nil
}

func (ls *leakTestService) AppendImageURL(ctx context.Context, id uuid.UUID, url string) (*types.TankLeakTest, error) {
	test, err := ls.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	urls, uErr := unmarshalImageURLs(test.ImageURLs)
	if uErr != nil {
		ls.log.Warn("Stored image urls unreadable, resetting", "id", id, "error", uErr)
		urls = nil
	}
	urls = append(urls, url)
	return ls.Update(ctx, id, UpdateLeakTestInput{ImageURLs: urls})
}

// inTransaction tolerates a nil db so the service can be exercised
// against fakes.
func (ls *leakTestService) inTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if ls.db == nil {
		return fn(nil)
	}
	return ls.db.WithContext(ctx).Transaction(fn)
}

func (ls *leakTestService) applyDefaults(input *CreateLeakTestInput) {
	if input.PressureUnit == "" {
		input.PressureUnit = ls.cfg.DefaultPressureUnit
	}
	if input.DurationUnit == "" {
		input.DurationUnit = ls.cfg.DefaultDurationUnit
	}
	if input.MaxAllowedPressureDrop == nil {
		v := ls.cfg.DefaultMaxAllowedPressureDrop
		input.MaxAllowedPressureDrop = &v
	}
}

func (ls *leakTestService) resolveNames(ctx context.Context, tx *gorm.DB, inspectorID, welderID uuid.UUID) (*types.User, *types.User, error) {
	ids := []uuid.UUID{inspectorID}
	if welderID != inspectorID {
		ids = append(ids, welderID)
	}
	users, err := ls.userRepo.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, nil, apierr.Persistence("user_lookup_failed", err)
	}
	var inspector, welder *types.User
	for _, u := range users {
		if u == nil {
			continue
		}
		if u.ID == inspectorID {
			inspector = u
		}
		if u.ID == welderID {
			welder = u
		}
	}
	if inspector == nil {
		return nil, nil, apierr.NotFound("inspector_not_found", fmt.Errorf("quality inspector %s does not exist", inspectorID))
	}
	if welder == nil {
		return nil, nil, apierr.NotFound("welder_not_found", fmt.Errorf("welder %s does not exist", welderID))
	}
	return inspector, welder, nil
}

func (ls *leakTestService) notifyIfFailed(ctx context.Context, test *types.TankLeakTest) {
	if test == nil || test.Status != types.LeakTestStatusFailed {
		return
	}
	if ls.alertService == nil {
		return
	}
	ls.alertService.PublishLeakTestFailed(ctx, test)
}

func validateCreateLeakTest(input CreateLeakTestInput) error {
	required := []struct {
		field string
		ok    bool
	}{
		{"tank_id", input.TankID != ""},
		{"tank_type", input.TankType != ""},
		{"test_type", input.TestType != ""},
		{"material_type", input.MaterialType != ""},
		{"welder_id", input.WelderID != uuid.Nil},
		{"test_pressure", input.TestPressure != nil},
		{"test_duration", input.TestDuration != nil},
		{"initial_pressure", input.InitialPressure != nil},
		{"final_pressure", input.FinalPressure != nil},
		{"max_allowed_pressure_drop", input.MaxAllowedPressureDrop != nil},
		{"temperature", input.Temperature != nil},
		{"temperature_unit", input.TemperatureUnit != ""},
		{"humidity", input.Humidity != nil},
	}
	for _, r := range required {
		if !r.ok {
			return apierr.Validation("missing_field", fmt.Errorf("%s is required", r.field))
		}
	}
	return nil
}

func mergeFloat(provided *float64, stored float64) *float64 {
	if provided != nil {
		return provided
	}
	v := stored
	return &v
}

func marshalImageURLs(urls []string) (datatypes.JSON, error) {
	if urls == nil {
		return nil, nil
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image urls: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func unmarshalImageURLs(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil, fmt.Errorf("failed to decode image urls: %w", err)
	}
	return urls, nil
}
