package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/logger"
)

const (
	defaultListLimit = 30
	maxListLimit     = 365
)

// ReportHandler serves saved reports and ledger entries
// ⭐ SSOT: 리포트 조회 API 핸들러는 여기서만
type ReportHandler struct {
	ledger   contracts.Ledger
	markdown goldmark.Markdown
	logger   *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(ledger contracts.Ledger, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		ledger: ledger,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps(), goldmarkhtml.WithXHTML()),
		),
		logger: log,
	}
}

// Health reports service status and ledger connectivity
// GET /health
func (h *ReportHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "dart-digest-api",
	}

	if pinger, ok := h.ledger.(contracts.Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Ledger health check failed")
			body["status"] = "degraded"
			body["ledger"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["ledger"] = "ok"
	}

	respondJSON(w, http.StatusOK, body)
}

// ReportSummary is one row of the report list
type ReportSummary struct {
	Date       string                    `json:"date"`
	RunID      string                    `json:"runId"`
	RunAt      time.Time                 `json:"runAt"`
	Companies  []string                  `json:"companies"`
	ReceiptNos []string                  `json:"receiptNos"`
	Origin     contracts.NarrativeOrigin `json:"origin"`
	Delivered  bool                      `json:"delivered"`
}

// ListReports returns recent reports, newest first
// GET /api/reports?limit=30
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	reports, err := h.ledger.ListReports(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reports")
		respondError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	items := make([]ReportSummary, 0, len(reports))
	for _, sel := range reports {
		companies := make([]string, 0, len(sel.Items))
		for _, item := range sel.Items {
			companies = append(companies, item.Disclosure.Company)
		}
		items = append(items, ReportSummary{
			Date:       sel.Date,
			RunID:      sel.RunID,
			RunAt:      sel.RunAt,
			Companies:  companies,
			ReceiptNos: sel.ReceiptNos(),
			Origin:     sel.Origin,
			Delivered:  sel.Delivered,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(items),
		"reports": items,
	})
}

// GetReport returns one report as JSON
// GET /api/reports/{date}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sel)
}

// RenderReport returns one report article as HTML
// GET /reports/{date}
func (h *ReportHandler) RenderReport(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	var body bytes.Buffer
	if err := h.markdown.Convert([]byte(sel.Article), &body); err != nil {
		h.logger.WithError(err).Error("Failed to render report")
		respondError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"ko\">\n<head><meta charset=\"utf-8\"/><title>DART 심층 리포트 %s</title></head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(sel.Date), body.String())
}

// GetLedgerEntry returns the processed record of a receipt number
// GET /api/ledger/{receipt}
func (h *ReportHandler) GetLedgerEntry(w http.ResponseWriter, r *http.Request) {
	receipt := mux.Vars(r)["receipt"]

	record, err := h.ledger.GetProcessed(r.Context(), receipt)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Receipt not processed: "+receipt)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get ledger entry")
		respondError(w, http.StatusInternalServerError, "Failed to get ledger entry")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (h *ReportHandler) loadReport(w http.ResponseWriter, r *http.Request) (*contracts.Selection, bool) {
	date := mux.Vars(r)["date"]
	if _, err := time.Parse(contracts.ReportDateLayout, date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return nil, false
	}

	sel, err := h.ledger.GetReport(r.Context(), date)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Report not found: "+date)
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get report")
		respondError(w, http.StatusInternalServerError, "Failed to get report")
		return nil, false
	}
	return sel, true
}
