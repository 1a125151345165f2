package scheduler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/rehab-scheduler/internal/export"
	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
	"github.com/wolfman30/rehab-scheduler/internal/views"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// Handler exposes the scheduler over HTTP.
type Handler struct {
	svc    *Service
	sink   export.Sink
	logger *logging.Logger
}

// NewHandler creates a scheduler HTTP handler. sink may be nil, in which
// case POST /exports answers 503.
func NewHandler(svc *Service, sink export.Sink, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, sink: sink, logger: logger}
}

// RegisterRoutes mounts the scheduler endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/therapies", h.ListTherapies)
	r.Get("/slots", h.GetGrid)
	r.Get("/slots/{date}/{time}", h.GetSlot)
	r.Get("/projection", h.GetProjection)
	r.Post("/bookings", h.CreateBooking)
	r.Delete("/bookings/{date}/{time}", h.CancelBooking)
	r.Get("/schedule/therapist", h.GetTherapistSchedule)
	r.Get("/schedule/customer", h.GetCustomerSchedule)
	r.Get("/export.csv", h.DownloadCSV)
	r.Post("/exports", h.CreateExport)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type linesResponse struct {
	Therapy therapy.Type `json:"therapy,omitempty"`
	Phone   string       `json:"phone,omitempty"`
	Lines   []views.Line `json:"lines"`
}

// ListTherapies returns the selectable therapy categories.
// GET /therapies
func (h *Handler) ListTherapies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"therapies": h.svc.Therapies()})
}

// GetGrid returns the slot grid coloured for the viewer.
// GET /slots?phone=&therapy=
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Grid(f))
}

// GetSlot returns a single slot's status.
// GET /slots/{date}/{time}
func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status, err := h.svc.Status(chi.URLParam(r, "date"), chi.URLParam(r, "time"), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GetProjection returns grid, therapist and customer views in one response.
// GET /projection?phone=&therapy=
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Projection(f))
}

// CreateBooking books a slot.
// POST /bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	change, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, change)
}

// CancelBooking cancels the booking in a slot. The phone comes from the JSON
// body or, failing that, the phone query parameter.
// DELETE /bookings/{date}/{time}
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if r.ContentLength != 0 && r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	}
	if body.Phone == "" {
		body.Phone = r.URL.Query().Get("phone")
	}
	change, err := h.svc.Cancel(r.Context(), CancelRequest{
		Date:  chi.URLParam(r, "date"),
		Time:  chi.URLParam(r, "time"),
		Phone: body.Phone,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// GetTherapistSchedule lists bookings for one department or all.
// GET /schedule/therapist?therapy=
func (h *Handler) GetTherapistSchedule(w http.ResponseWriter, r *http.Request) {
	t, err := therapyFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, linesResponse{Therapy: t, Lines: h.svc.TherapistSchedule(t)})
}

// GetCustomerSchedule lists bookings held by a phone.
// GET /schedule/customer?phone=
func (h *Handler) GetCustomerSchedule(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	writeJSON(w, http.StatusOK, linesResponse{Phone: phone, Lines: h.svc.CustomerSchedule(phone)})
}

// DownloadCSV streams the therapist-filtered export.
// GET /export.csv?therapy=
func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	t, err := therapyFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.svc.ExportName(t)+`"`)
	if err := h.svc.WriteCSV(w, t); err != nil {
		h.logger.Error("failed to stream schedule csv", "error", err)
	}
}

// CreateExport writes the export to the configured sink.
// POST /exports?therapy=
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	if h.sink == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no export destination configured"})
		return
	}
	t, err := therapyFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	location, err := h.svc.Export(r.Context(), t, h.sink)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"location": location})
}

func therapyFromQuery(r *http.Request) (therapy.Type, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("therapy"))
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	t, err := therapy.Parse(raw)
	if err != nil {
		return "", invalid("therapy", err.Error())
	}
	return t, nil
}

func filterFromQuery(r *http.Request) (views.Filter, error) {
	t, err := therapyFromQuery(r)
	if err != nil {
		return views.Filter{}, err
	}
	return views.Filter{Phone: r.URL.Query().Get("phone"), Therapy: t}, nil
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	var (
		vErr  *ValidationError
		ioErr *export.IOError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownSlot), errors.Is(err, ledger.ErrNotBooked):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrPhoneMismatch):
		return http.StatusForbidden
	case errors.As(err, &ioErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	resp := errorResponse{Error: publicMessage(err)}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		resp.Field = vErr.Field
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("scheduler request failed", "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

func publicMessage(err error) string {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.Is(err, ErrUnknownSlot):
		return ErrUnknownSlot.Error()
	case errors.Is(err, ledger.ErrSlotTaken):
		return "this slot is already booked"
	case errors.Is(err, ledger.ErrNotBooked):
		return "this slot is not booked"
	case errors.Is(err, ledger.ErrPhoneMismatch):
		return "the mobile number does not match the booking"
	case StatusFor(err) == http.StatusBadGateway:
		return "failed to write export"
	default:
		return "internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
