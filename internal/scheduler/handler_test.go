package scheduler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/rehab-scheduler/internal/export"
	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

func newTestRouter(t *testing.T, sink export.Sink) (*Service, http.Handler) {
	t.Helper()
	svc := newTestService(t)
	r := chi.NewRouter()
	NewHandler(svc, sink, logging.Discard()).RegisterRoutes(r)
	return svc, r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingEndpoint(t *testing.T) {
	_, h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/bookings", BookRequest{
		Date: "2024-01-01", Time: "09:00", Phone: "555-1234", Therapy: "physical-therapy",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var change ledger.Change
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &change))
	assert.Equal(t, "2024-01-01_09:00", change.Booking.Key.String())
	assert.Equal(t, therapy.Physical, change.Booking.Therapy)

	rec = do(t, h, http.MethodPost, "/bookings", BookRequest{
		Date: "2024-01-01", Time: "09:00", Phone: "555-9999", Therapy: "AQUATIC THERAPY",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBookingErrors(t *testing.T) {
	_, h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/bookings", BookRequest{Date: "2024-01-01", Time: "09:00", Therapy: "AQUATIC THERAPY"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "phone", resp.Field)

	rec = do(t, h, http.MethodPost, "/bookings", BookRequest{Date: "2024-01-07", Time: "09:00", Phone: "1", Therapy: "AQUATIC THERAPY"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	svc, h := newTestRouter(t, nil)
	book(t, svc, "2024-01-01", "09:00", "555-1234", therapy.Physical)

	rec := do(t, h, http.MethodDelete, "/bookings/2024-01-01/09:00", map[string]string{"phone": "555-0000"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/bookings/2024-01-01/09:25?phone=555-1234", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/bookings/2024-01-01/09:00?phone=555-1234", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"kind":"cancelled"`)
}

func TestGridAndSlotEndpoints(t *testing.T) {
	svc, h := newTestRouter(t, nil)
	book(t, svc, "2024-01-01", "09:00", "555-1234", therapy.Physical)

	rec := do(t, h, http.MethodGet, "/slots?phone=555-1234", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var grid struct {
		Columns []struct {
			Heading string `json:"heading"`
			Cells   []struct {
				State  string `json:"state"`
				Colour string `json:"colour"`
			} `json:"cells"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
	require.Len(t, grid.Columns, 7)
	assert.Equal(t, "own", grid.Columns[0].Cells[0].State)
	assert.Equal(t, "yellow", grid.Columns[0].Cells[0].Colour)

	rec = do(t, h, http.MethodGet, "/slots/2024-01-01/09:00?therapy=physical-therapy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"by_therapy"`)

	rec = do(t, h, http.MethodGet, "/slots?therapy=yoga", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/slots/2024-01-01/12:20", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleEndpoints(t *testing.T) {
	svc, h := newTestRouter(t, nil)
	book(t, svc, "2024-01-01", "09:00", "555-1234", therapy.Physical)
	book(t, svc, "2024-01-01", "09:25", "555-9999", therapy.Aquatic)

	rec := do(t, h, http.MethodGet, "/schedule/therapist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-01-01 at 09:25 (AQUATIC THERAPY) - 555-9999")

	rec = do(t, h, http.MethodGet, "/schedule/therapist?therapy=AQUATIC%20THERAPY", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"2024-01-01 at 09:25"`)
	assert.NotContains(t, rec.Body.String(), "555-1234")

	rec = do(t, h, http.MethodGet, "/schedule/customer?phone=555-1234", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-01-01 at 09:00 | PHYSICAL THERAPY")

	rec = do(t, h, http.MethodGet, "/therapies", nil)
	assert.Contains(t, rec.Body.String(), "OCCUPATIONAL THERAPY")

	rec = do(t, h, http.MethodGet, "/projection?phone=555-1234", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"customer":[`)
}

func TestDownloadCSV(t *testing.T) {
	svc, h := newTestRouter(t, nil)
	book(t, svc, "2024-01-01", "09:00", "555-1234", therapy.Physical)

	rec := do(t, h, http.MethodGet, "/export.csv?therapy=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="schedule-all-20240101T173000Z.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Time,Therapy Type,Customer Mobile\n2024-01-01,09:00,PHYSICAL THERAPY,555-1234\n", rec.Body.String())
}

func TestCreateExportEndpoint(t *testing.T) {
	_, h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodPost, "/exports", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	sink := &memorySink{}
	_, h = newTestRouter(t, sink)
	rec = do(t, h, http.MethodPost, "/exports?therapy=speech-and-language-therapy", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "mem://schedule-speech-and-language-therapy-")

	failing := &memorySink{err: &export.IOError{Location: "/x", Err: errors.New("disk full")}}
	_, h = newTestRouter(t, failing)
	rec = do(t, h, http.MethodPost, "/exports", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&ValidationError{Field: "phone"}))
}
