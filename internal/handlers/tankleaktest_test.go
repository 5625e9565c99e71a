package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tekmak/kys-backend/internal/apierr"
	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/repos"
	"github.com/tekmak/kys-backend/internal/services"
	"github.com/tekmak/kys-backend/internal/types"
)

type fakeLeakTestService struct {
	createInput services.CreateLeakTestInput
	listFilter  repos.TankLeakTestFilter
	listPage    int
	listSize    int
	getErr      error
	record      *types.TankLeakTest
}

func (f *fakeLeakTestService) Create(ctx context.Context, input services.CreateLeakTestInput) (*types.TankLeakTest, error) {
	f.createInput = input
	return f.record, nil
}

func (f *fakeLeakTestService) GetByID(ctx context.Context, id uuid.UUID) (*types.TankLeakTest, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

func (f *fakeLeakTestService) List(ctx context.Context, filter repos.TankLeakTestFilter, page, pageSize int) (*services.LeakTestPage, error) {
	f.listFilter = filter
	f.listPage = page
	f.listSize = pageSize
	return &services.LeakTestPage{Data: []*types.TankLeakTest{}, Total: 0, Page: page, Pages: 0}, nil
}

func (f *fakeLeakTestService) Update(ctx context.Context, id uuid.UUID, input services.UpdateLeakTestInput) (*types.TankLeakTest, error) {
	return f.record, nil
}

func (f *fakeLeakTestService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.getErr
}

func (f *fakeLeakTestService) AppendImageURL(ctx context.Context, id uuid.UUID, url string) (*types.TankLeakTest, error) {
	return f.record, nil
}

func newHandlerFixture(t *testing.T) (*TankLeakTestHandler, *fakeLeakTestService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	svc := &fakeLeakTestService{record: &types.TankLeakTest{ID: uuid.New(), TankID: "TK-07"}}
	handler := NewTankLeakTestHandler(log, svc, nil)
	router := gin.New()
	router.POST("/api/tank-leak-tests", handler.Create)
	router.GET("/api/tank-leak-tests", handler.List)
	router.GET("/api/tank-leak-tests/:id", handler.Get)
	router.DELETE("/api/tank-leak-tests/:id", handler.Delete)
	return handler, svc, router
}

func TestCreateLeakTestReturns201(t *testing.T) {
	_, svc, router := newHandlerFixture(t)

	welderID := uuid.New()
	body := fmt.Sprintf(`{
		"tank_id": "TK-07",
		"tank_type": "fuel",
		"test_type": "air",
		"material_type": "aluminum",
		"welder_id": %q,
		"test_pressure": 10,
		"test_duration": 30,
		"initial_pressure": 10,
		"final_pressure": 9.2,
		"max_allowed_pressure_drop": 1.0,
		"temperature": 21,
		"temperature_unit": "C",
		"humidity": 45
	}`, welderID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tank-leak-tests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d body=%s", w.Code, w.Body.String())
	}
	if svc.createInput.WelderID != welderID {
		t.Fatalf("welder id not forwarded: %s", svc.createInput.WelderID)
	}
	if svc.createInput.InitialPressure == nil || *svc.createInput.InitialPressure != 10 {
		t.Fatalf("initial pressure not forwarded")
	}
}

func TestCreateLeakTestRejectsBadWelderID(t *testing.T) {
	_, _, router := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tank-leak-tests", strings.NewReader(`{"welder_id": "not-a-uuid"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", w.Code)
	}
}

func TestGetLeakTestMapsNotFound(t *testing.T) {
	_, svc, router := newHandlerFixture(t)
	svc.getErr = apierr.NotFound("leak_test_not_found", fmt.Errorf("missing"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tank-leak-tests/"+uuid.New().String(), nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "leak_test_not_found" {
		t.Fatalf("error code: want=%q got=%q", "leak_test_not_found", envelope.Error.Code)
	}
}

func TestListLeakTestsParsesQuery(t *testing.T) {
	_, svc, router := newHandlerFixture(t)

	welderID := uuid.New()
	url := "/api/tank-leak-tests?status=FAILED&tankId=TK-07&welderId=" + welderID.String() +
		"&startDate=2026-01-01&endDate=2026-01-31&page=2&limit=25"
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if svc.listFilter.Status != "FAILED" || svc.listFilter.TankID != "TK-07" {
		t.Fatalf("filter not forwarded: %+v", svc.listFilter)
	}
	if svc.listFilter.WelderID == nil || *svc.listFilter.WelderID != welderID {
		t.Fatalf("welder filter not forwarded")
	}
	if svc.listFilter.StartDate == nil || svc.listFilter.EndDate == nil {
		t.Fatalf("date range not forwarded")
	}
	if svc.listPage != 2 || svc.listSize != 25 {
		t.Fatalf("pagination not forwarded: page=%d limit=%d", svc.listPage, svc.listSize)
	}
}

func TestListLeakTestsEndDateCoversWholeDay(t *testing.T) {
	_, svc, router := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tank-leak-tests?endDate=2026-01-31", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if svc.listFilter.EndDate == nil {
		t.Fatalf("end date not forwarded")
	}
	// A bare date is an inclusive upper bound for that whole day, so a
	// record dated 2026-01-31T14:00:00Z must still fall inside it.
	sameDay := time.Date(2026, 1, 31, 14, 0, 0, 0, time.UTC)
	if svc.listFilter.EndDate.Before(sameDay) {
		t.Fatalf("end date %s excludes records later the same day", svc.listFilter.EndDate)
	}
	nextDay := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !svc.listFilter.EndDate.Before(nextDay) {
		t.Fatalf("end date %s spills into the next day", svc.listFilter.EndDate)
	}
}

func TestListLeakTestsKeepsTimestampEndDate(t *testing.T) {
	_, svc, router := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tank-leak-tests?endDate=2026-01-31T10%3A30%3A00Z", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	want := time.Date(2026, 1, 31, 10, 30, 0, 0, time.UTC)
	if svc.listFilter.EndDate == nil || !svc.listFilter.EndDate.Equal(want) {
		t.Fatalf("timestamp bound altered: got %v want %v", svc.listFilter.EndDate, want)
	}
}

func TestDeleteLeakTestRejectsBadID(t *testing.T) {
	_, _, router := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/tank-leak-tests/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", w.Code)
	}
}
