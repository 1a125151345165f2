package invoices

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// Handler provides HTTP endpoints for invoice management.
type Handler struct {
	manager *Manager
	clinic  string
	logger  *logging.Logger
}

// NewHandler creates an invoice handler. clinic heads generated PDFs.
func NewHandler(manager *Manager, clinic string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{manager: manager, clinic: clinic, logger: logger}
}

// Routes returns a chi router with the invoice routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/next-number", h.NextNumber)
	r.Get("/export.csv", h.DownloadCSV)
	r.Get("/customers/{customerID}/total", h.CustomerTotal)
	r.Get("/{invoiceNo}", h.Get)
	r.Put("/{invoiceNo}", h.Update)
	r.Delete("/{invoiceNo}", h.Delete)
	r.Get("/{invoiceNo}/preview", h.Preview)
	r.Get("/{invoiceNo}/pdf", h.PDF)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// List returns invoices matching the query filters.
// GET /invoices?invoice_no=&customer_id=&issued=&customer=&first_name=&last_name=&mobile=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	list, err := h.manager.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": list})
}

// NextNumber suggests the next invoice number.
// GET /invoices/next-number
func (h *Handler) NextNumber(w http.ResponseWriter, r *http.Request) {
	next, err := h.manager.NextInvoiceNo(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"invoice_no": next})
}

// Create adds an invoice.
// POST /invoices
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	inv, err := h.manager.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Get returns one invoice.
// GET /invoices/{invoiceNo}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Update replaces an invoice's fields.
// PUT /invoices/{invoiceNo}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	no, ok := h.invoiceNo(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	inv, err := h.manager.Update(r.Context(), no, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Delete removes an invoice.
// DELETE /invoices/{invoiceNo}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	no, ok := h.invoiceNo(w, r)
	if !ok {
		return
	}
	if err := h.manager.Delete(r.Context(), no); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CustomerTotal returns the amount billed to a customer.
// GET /invoices/customers/{customerID}/total
func (h *Handler) CustomerTotal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "customer id must be a number", Field: "customer_id"})
		return
	}
	total, err := h.manager.CustomerTotal(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customer_id": id,
		"total_cents": total,
		"display":     "₹ " + FormatAmount(total),
	})
}

// DownloadCSV streams the filtered listing as CSV.
// GET /invoices/export.csv
func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	list, err := h.manager.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_invoice_data.csv"`)
	if err := WriteCSV(w, list); err != nil {
		h.logger.Error("failed to stream invoice csv", "error", err)
	}
}

// Preview returns the plain-text summary.
// GET /invoices/{invoiceNo}/preview
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Preview(inv)))
}

// PDF renders the invoice as a PDF download.
// GET /invoices/{invoiceNo}/pdf
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, inv, h.clinic); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+PDFName(inv)+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) invoiceNo(w http.ResponseWriter, r *http.Request) (int64, bool) {
	no, err := strconv.ParseInt(chi.URLParam(r, "invoiceNo"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invoice number must be a number", Field: "invoice_no"})
		return 0, false
	}
	return no, true
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Invoice, bool) {
	no, ok := h.invoiceNo(w, r)
	if !ok {
		return Invoice{}, false
	}
	inv, err := h.manager.Get(r.Context(), no)
	if err != nil {
		h.writeError(w, err)
		return Invoice{}, false
	}
	return inv, true
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		Issued:         q.Get("issued"),
		CustomerIDLike: q.Get("customer"),
		FirstName:      q.Get("first_name"),
		LastName:       q.Get("last_name"),
		Mobile:         q.Get("mobile"),
	}
	if v := q.Get("invoice_no"); v != "" {
		no, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Filter{}, &ValidationError{Field: "invoice_no", Message: "must be a number"}
		}
		f.InvoiceNo = &no
	}
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Filter{}, &ValidationError{Field: "customer_id", Message: "must be a number"}
		}
		f.CustomerID = &id
	}
	return f, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Message, Field: vErr.Field})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotFound.Error()})
	case errors.Is(err, ErrDuplicateInvoiceNo):
		writeJSON(w, http.StatusConflict, errorResponse{Error: ErrDuplicateInvoiceNo.Error()})
	default:
		h.logger.Error("invoice request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
