package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/repos"
	"github.com/tekmak/kys-backend/internal/services"
)

type TankLeakTestHandler struct {
	log             *logger.Logger
	leakTestService services.LeakTestService
	bucketService   services.BucketService
}

func NewTankLeakTestHandler(log *logger.Logger, ltsvc services.LeakTestService, bsvc services.BucketService) *TankLeakTestHandler {
	return &TankLeakTestHandler{
		log:             log.With("handler", "TankLeakTestHandler"),
		leakTestService: ltsvc,
		bucketService:   bsvc,
	}
}

type createLeakTestRequest struct {
	TankID       string `json:"tank_id"`
	TankType     string `json:"tank_type"`
	TestType     string `json:"test_type"`
	MaterialType string `json:"material_type"`

	WelderID string  `json:"welder_id"`
	TestDate *string `json:"test_date"`

	TestPressure *float64 `json:"test_pressure"`
	PressureUnit string   `json:"pressure_unit"`
	TestDuration *float64 `json:"test_duration"`
	DurationUnit string   `json:"duration_unit"`

	InitialPressure        *float64 `json:"initial_pressure"`
	FinalPressure          *float64 `json:"final_pressure"`
	MaxAllowedPressureDrop *float64 `json:"max_allowed_pressure_drop"`

	Temperature     *float64 `json:"temperature"`
	TemperatureUnit string   `json:"temperature_unit"`
	Humidity        *float64 `json:"humidity"`

	Notes     string   `json:"notes"`
	ImageURLs []string `json:"image_urls"`
}

type updateLeakTestRequest struct {
	InitialPressure        *float64 `json:"initial_pressure"`
	FinalPressure          *float64 `json:"final_pressure"`
	MaxAllowedPressureDrop *float64 `json:"max_allowed_pressure_drop"`
	Notes                  *string  `json:"notes"`
	ImageURLs              []string `json:"image_urls"`
}

// POST /api/tank-leak-tests
func (th *TankLeakTestHandler) Create(c *gin.Context) {
	var req createLeakTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	welderID, err := uuid.Parse(req.WelderID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_welder_id", err)
		return
	}
	var testDate *time.Time
	if req.TestDate != nil {
		parsed, pErr := parseDateParam(*req.TestDate)
		if pErr != nil {
			RespondError(c, http.StatusBadRequest, "invalid_test_date", pErr)
			return
		}
		testDate = &parsed
	}

	input := services.CreateLeakTestInput{
		TankID:                 req.TankID,
		TankType:               req.TankType,
		TestType:               req.TestType,
		MaterialType:           req.MaterialType,
		WelderID:               welderID,
		TestDate:               testDate,
		TestPressure:           req.TestPressure,
		PressureUnit:           req.PressureUnit,
		TestDuration:           req.TestDuration,
		DurationUnit:           req.DurationUnit,
		InitialPressure:        req.InitialPressure,
		FinalPressure:          req.FinalPressure,
		MaxAllowedPressureDrop: req.MaxAllowedPressureDrop,
		Temperature:            req.Temperature,
		TemperatureUnit:        req.TemperatureUnit,
		Humidity:               req.Humidity,
		Notes:                  req.Notes,
		ImageURLs:              req.ImageURLs,
	}
	created, err := th.leakTestService.Create(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// GET /api/tank-leak-tests
func (th *TankLeakTestHandler) List(c *gin.Context) {
	filter := repos.TankLeakTestFilter{
		Status: c.Query("status"),
		TankID: c.Query("tankId"),
	}
	if raw := c.Query("welderId"); raw != "" {
		welderID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_welder_id", err)
			return
		}
		filter.WelderID = &welderID
	}
	if raw := c.Query("startDate"); raw != "" {
		start, err := parseDateParam(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_start_date", err)
			return
		}
		filter.StartDate = &start
	}
	if raw := c.Query("endDate"); raw != "" {
		end, err := parseEndDateParam(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_end_date", err)
			return
		}
		filter.EndDate = &end
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := th.leakTestService.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"data":  result.Data,
		"count": len(result.Data),
		"pagination": gin.H{
			"total": result.Total,
			"page":  result.Page,
			"pages": result.Pages,
		},
	})
}

// GET /api/tank-leak-tests/:id
func (th *TankLeakTestHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	test, err := th.leakTestService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"data": test})
}

// PATCH /api/tank-leak-tests/:id
func (th *TankLeakTestHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateLeakTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	input := services.UpdateLeakTestInput{
		InitialPressure:        req.InitialPressure,
		FinalPressure:          req.FinalPressure,
		MaxAllowedPressureDrop: req.MaxAllowedPressureDrop,
		Notes:                  req.Notes,
		ImageURLs:              req.ImageURLs,
	}
	updated, err := th.leakTestService.Update(c.Request.Context(), id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"data": updated})
}

// DELETE /api/tank-leak-tests/:id
func (th *TankLeakTestHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := th.leakTestService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true, "id": id})
}

// POST /api/tank-leak-tests/:id/images
func (th *TankLeakTestHandler) UploadImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if th.bucketService == nil {
		RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", fmt.Errorf("image storage is not configured"))
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_image", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_image", err)
		return
	}
	defer file.Close()

	key := fmt.Sprintf("leak-tests/%s/%s%s", id, uuid.New(), filepath.Ext(fileHeader.Filename))
	if err := th.bucketService.UploadFile(c.Request.Context(), key, file); err != nil {
		th.log.Warn("Image upload failed", "id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "image_upload_failed", err)
		return
	}
	updated, err := th.leakTestService.AppendImageURL(c.Request.Context(), id, th.bucketService.GetPublicURL(key))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"data": updated})
}

func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD date, got %q", raw)
	}
	return t, nil
}

// parseEndDateParam widens a bare YYYY-MM-DD upper bound to the end of
// that day so the range stays inclusive of records dated later the
// same day. Full RFC3339 timestamps are taken as given.
func parseEndDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD date, got %q", raw)
	}
	return t.Add(24*time.Hour - time.Nanosecond), nil
}
