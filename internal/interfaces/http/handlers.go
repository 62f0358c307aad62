package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
	"vendorguard/internal/ports"
	"vendorguard/internal/usecase/audit"
	"vendorguard/internal/usecase/document"
	"vendorguard/internal/usecase/flags"
	"vendorguard/internal/usecase/risk"
	"vendorguard/internal/usecase/vendor"
)

const maxUploadBytes = 10 << 20

type handlers struct {
	vendors   *vendor.Service
	documents *document.Service
	risk      *risk.Service
	flags     *flags.Service
	audit     *audit.Service
}

type onboardRequest struct {
	LegalName          string `json:"legalName"`
	TradingName        string `json:"tradingName"`
	RegistrationNumber string `json:"registrationNumber"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	OnboardingNotes    string `json:"onboardingNotes"`
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

type commentsRequest struct {
	Comments string `json:"comments"`
}

type vendorResponse struct {
	ID                   uint64     `json:"id"`
	LegalName            string     `json:"legalName"`
	TradingName          string     `json:"tradingName,omitempty"`
	RegistrationNumber   string     `json:"registrationNumber"`
	Email                string     `json:"email,omitempty"`
	Phone                string     `json:"phone,omitempty"`
	Address              string     `json:"address,omitempty"`
	Status               string     `json:"status"`
	RiskScore            int        `json:"riskScore"`
	LastRiskCalculatedAt *time.Time `json:"lastRiskCalculatedAt,omitempty"`
	OnboardingNotes      string     `json:"onboardingNotes,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func toVendorResponse(v ports.Vendor) vendorResponse {
	return vendorResponse{
		ID:                   v.ID,
		LegalName:            v.LegalName,
		TradingName:          v.TradingName,
		RegistrationNumber:   v.RegistrationNumber,
		Email:                v.Email,
		Phone:                v.Phone,
		Address:              v.Address,
		Status:               string(v.Status),
		RiskScore:            v.RiskScore,
		LastRiskCalculatedAt: v.LastRiskCalculatedAt,
		OnboardingNotes:      v.OnboardingNotes,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
}

func (h *handlers) onboardVendor(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid json body"})
		return
	}

	v, err := h.vendors.Onboard(r.Context(), vendor.OnboardInput{
		LegalName:          req.LegalName,
		TradingName:        req.TradingName,
		RegistrationNumber: req.RegistrationNumber,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		OnboardingNotes:    req.OnboardingNotes,
	}, actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVendorResponse(v))
}

func (h *handlers) getVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}
	v, err := h.vendors.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendorResponse(v))
}

func (h *handlers) listVendors(w http.ResponseWriter, r *http.Request) {
	var status *compliance.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := compliance.ParseStatus(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
			return
		}
		status = &parsed
	}

	vendors, err := h.vendors.List(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]vendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, toVendorResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) approveVendor(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, compliance.StatusApproved)
}

func (h *handlers) rejectVendor(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, compliance.StatusRejected)
}

func (h *handlers) decide(w http.ResponseWriter, r *http.Request, target compliance.Status) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}

	var req commentsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid json body"})
			return
		}
	}

	v, err := h.vendors.Transition(r.Context(), id, target, req.Comments, actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendorResponse(v))
}

func (h *handlers) reviewVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid json body"})
		return
	}

	var target compliance.Status
	switch req.Decision {
	case "APPROVE":
		target = compliance.StatusApproved
	case "REJECT":
		target = compliance.StatusRejected
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "decision must be APPROVE or REJECT"})
		return
	}

	v, err := h.vendors.Transition(r.Context(), id, target, req.Comments, actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendorResponse(v))
}

func (h *handlers) calculateRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}

	result, err := h.risk.Score(r.Context(), id, actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vendorId":         result.VendorID,
		"riskScore":        result.Score,
		"riskLevel":        result.Level,
		"missingDocuments": categoryStrings(result.Missing),
		"expiredDocuments": categoryStrings(result.Expired),
		"evaluatedAt":      result.EvaluatedAt,
	})
}

func (h *handlers) uploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, errs.Wrap(compliance.ErrInvalidUpload, "invalid multipart form"))
		return
	}

	input := document.UploadInput{
		Category: compliance.NormalizeCategory(r.FormValue("type")),
	}
	if raw := r.FormValue("expiryDate"); raw != "" {
		expiry, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, errs.Wrap(compliance.ErrInvalidUpload, "expiryDate must be YYYY-MM-DD"))
			return
		}
		input.ExpiryDate = expiry
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		content, readErr := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if readErr != nil {
			writeError(w, r, errs.Wrap(compliance.ErrInvalidUpload, "failed to read uploaded document"))
			return
		}
		input.Content = content
		input.FileName = header.Filename
		input.MediaType = header.Header.Get("Content-Type")
	}

	d, err := h.documents.Upload(r.Context(), id, input, actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(d, false))
}

func (h *handlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}

	views, err := h.documents.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(views))
	for _, v := range views {
		out = append(out, toDocumentResponse(v.VendorDocument, v.Expired))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) downloadDocument(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}
	documentID, ok := pathID(w, r, "documentID")
	if !ok {
		return
	}

	d, content, err := h.documents.Download(r.Context(), vendorID, documentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", d.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.FileName))
	_, _ = w.Write(content)
}

func (h *handlers) openFlag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid json body"})
		return
	}

	flag, err := h.flags.Open(r.Context(), id, req.Description, actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFlagResponse(flag))
}

func (h *handlers) listFlags(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vendorID")
	if !ok {
		return
	}

	found, err := h.flags.Unresolved(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(found))
	for _, f := range found {
		out = append(out, toFlagResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) resolveFlag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "flagID")
	if !ok {
		return
	}

	flag, err := h.flags.Resolve(r.Context(), id, actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlagResponse(flag))
}

func (h *handlers) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	var filter ports.AuditLogFilter
	if raw := r.URL.Query().Get("vendorId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "vendorId must be numeric"})
			return
		}
		filter.VendorID = &id
	}
	filter.Action = r.URL.Query().Get("action")

	entries, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func toDocumentResponse(d ports.VendorDocument, expired bool) map[string]any {
	return map[string]any{
		"id":         d.ID,
		"vendorId":   d.VendorID,
		"type":       string(d.Category),
		"fileName":   d.FileName,
		"mediaType":  d.MediaType,
		"expiryDate": d.ExpiryDate.Format("2006-01-02"),
		"expired":    expired,
		"uploadedBy": d.UploadedBy,
		"uploadedAt": d.UploadedAt,
	}
}

func toFlagResponse(f ports.AuditFlag) map[string]any {
	return map[string]any{
		"id":          f.ID,
		"vendorId":    f.VendorID,
		"reason":      string(f.Reason),
		"description": f.Description,
		"resolved":    f.Resolved,
		"resolvedAt":  f.ResolvedAt,
		"createdBy":   f.CreatedBy,
		"createdAt":   f.CreatedAt,
	}
}

func categoryStrings(categories []compliance.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: param + " must be numeric"})
		return 0, false
	}
	return id, true
}
