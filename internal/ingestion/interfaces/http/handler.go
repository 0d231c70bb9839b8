// Package http exposes the file ingestion REST endpoints.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"energy-process/internal/audit"
	"energy-process/internal/auth"
	"energy-process/internal/ingestion/application"
	ingestion "energy-process/internal/ingestion/domain"
	"energy-process/internal/ingestion/interfaces"
	"energy-process/internal/observability/metrics"
)

// maxUploadBytes bounds the multipart body held in memory.
const maxUploadBytes = 64 << 20

// Handler provides ingestion HTTP endpoints.
type Handler struct {
	admission   *application.AdmissionService
	coordinator *application.Coordinator
	files       ingestion.FileRepository
	records     ingestion.RecordRepository
	errs        ingestion.ErrorRepository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(
	admission *application.AdmissionService,
	coordinator *application.Coordinator,
	files ingestion.FileRepository,
	records ingestion.RecordRepository,
	errs ingestion.ErrorRepository,
	auditLogger audit.Logger,
) (*Handler, error) {
	if admission == nil {
		return nil, errors.New("ingestion handler: nil admission service")
	}
	if coordinator == nil {
		return nil, errors.New("ingestion handler: nil coordinator")
	}
	if files == nil || records == nil || errs == nil {
		return nil, errors.New("ingestion handler: nil repository")
	}
	return &Handler{
		admission:   admission,
		coordinator: coordinator,
		files:       files,
		records:     records,
		errs:        errs,
		auditLogger: auditLogger,
	}, nil
}

// Register wires the handler routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/archivos/upload", h.handleUpload)
	mux.HandleFunc("/api/v1/archivos", h.handleListFiles)
	mux.HandleFunc("/api/v1/archivos/", h.handleFileSubtree)
	mux.HandleFunc("/api/v1/energia", h.handleListRecords)
}

// handleUpload admits one file and responds before processing finishes.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	content, filename, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.admission.AdmitFile(r.Context(), content, filename)
	var dup *application.DuplicateFileError
	if errors.As(err, &dup) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":            string(ingestion.ErrorDuplicateFile),
			"detail":           dup.Error(),
			"existing_file_id": dup.ExistingID,
		})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(result)

	h.logAudit(r, "file.upload", strconv.FormatInt(result.FileID, 10), filename)
}

// readUpload accepts either a multipart "file" field or a raw body.
func readUpload(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", errors.New("invalid multipart body")
		}
		part, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("multipart field 'file' required")
		}
		defer part.Close()
		content, err := io.ReadAll(io.LimitReader(part, maxUploadBytes))
		if err != nil {
			return nil, "", errors.New("read upload error")
		}
		return content, header.Filename, nil
	}

	content, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, "", errors.New("read body error")
	}
	defer r.Body.Close()
	filename := r.URL.Query().Get("filename")
	return content, filename, nil
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	list, err := h.files.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]fileView, 0, len(list))
	for i := range list {
		views = append(views, newFileView(&list[i]))
	}
	writeJSON(w, views)
}

// handleFileSubtree dispatches /api/v1/archivos/{id}[/errores|/report.xlsx|/report.pdf].
func (h *Handler) handleFileSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/archivos/")
	idPart, action, _ := strings.Cut(rest, "/")
	fileID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		http.Error(w, "invalid file id", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		h.respondFile(w, r, fileID)
	case "errores":
		h.respondErrors(w, r, fileID)
	case "report.xlsx":
		h.respondReport(w, r, fileID, "xlsx")
	case "report.pdf":
		h.respondReport(w, r, fileID, "pdf")
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) respondFile(w http.ResponseWriter, r *http.Request, fileID int64) {
	file, err := h.coordinator.GetJobStatus(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, newFileView(file))
}

func (h *Handler) respondErrors(w http.ResponseWriter, r *http.Request, fileID int64) {
	file, err := h.files.Get(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.NotFound(w, r)
		return
	}
	list, err := h.errs.ListByFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]errorView, 0, len(list))
	for _, verr := range list {
		views = append(views, errorView{
			Line:        verr.Line,
			Kind:        string(verr.Kind),
			Description: verr.Description,
			RawRow:      verr.RawRow,
		})
	}
	writeJSON(w, views)
}

func (h *Handler) respondReport(w http.ResponseWriter, r *http.Request, fileID int64, format string) {
	started := time.Now()
	file, err := h.files.Get(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.NotFound(w, r)
		return
	}
	records, err := h.records.List(r.Context(), ingestion.RecordFilter{FileID: &fileID})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	verrs, err := h.errs.ListByFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "xlsx":
		payload, err = interfaces.BuildFileReportXLSX(file, records, verrs)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = interfaces.BuildFileReportPDF(file, records, verrs)
		contentType = "application/pdf"
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		metrics.ObserveExport(format, "error", time.Since(started).Seconds())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(format, "success", time.Since(started).Seconds())

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=file-"+strconv.FormatInt(fileID, 10)+"-report."+format)
	_, _ = w.Write(payload)

	h.logAudit(r, "file.export."+format, strconv.FormatInt(fileID, 10), file.Filename)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	filter := ingestion.RecordFilter{CUPS: r.URL.Query().Get("cups")}
	if value := r.URL.Query().Get("fecha_desde"); value != "" {
		parsed, err := time.Parse(ingestion.DateLayout, value)
		if err != nil {
			http.Error(w, "fecha_desde must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.FromDate = &parsed
	}
	if value := r.URL.Query().Get("fecha_hasta"); value != "" {
		parsed, err := time.Parse(ingestion.DateLayout, value)
		if err != nil {
			http.Error(w, "fecha_hasta must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.ToDate = &parsed
	}
	if value := r.URL.Query().Get("tipo"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			http.Error(w, "tipo must be an integer", http.StatusBadRequest)
			return
		}
		filter.Type = &parsed
	}
	if value := r.URL.Query().Get("archivo_id"); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			http.Error(w, "archivo_id must be an integer", http.StatusBadRequest)
			return
		}
		filter.FileID = &parsed
	}

	list, err := h.records.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]recordView, 0, len(list))
	for i := range list {
		views = append(views, newRecordView(&list[i]))
	}
	writeJSON(w, views)
}

func (h *Handler) logAudit(r *http.Request, action, resourceID, filename string) {
	if h.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{"filename": filename})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "uploaded_file",
		ResourceID:   resourceID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}

type fileView struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	ContentHash string `json:"content_hash"`
	State       string `json:"state"`
	Total       int    `json:"total_records"`
	Successful  int    `json:"successful_records"`
	Failed      int    `json:"failed_records"`
	UploadedAt  string `json:"uploaded_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

func newFileView(file *ingestion.UploadedFile) fileView {
	view := fileView{
		ID:          file.ID,
		Filename:    file.Filename,
		ContentHash: file.ContentHash,
		State:       string(file.State),
		Total:       file.Total,
		Successful:  file.Successful,
		Failed:      file.Failed,
		UploadedAt:  file.UploadedAt.Format(time.RFC3339),
	}
	if !file.ProcessedAt.IsZero() {
		view.ProcessedAt = file.ProcessedAt.Format(time.RFC3339)
	}
	return view
}

type errorView struct {
	Line        int    `json:"line"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	RawRow      string `json:"raw_row,omitempty"`
}

type recordView struct {
	ID           int64      `json:"id"`
	FileID       int64      `json:"file_id"`
	CUPS         string     `json:"cups"`
	Installation string     `json:"installation,omitempty"`
	PeriodStart  string     `json:"period_start"`
	PeriodEnd    string     `json:"period_end"`
	Type         int        `json:"type"`
	NetGenerated [6]float64 `json:"net_generated"`
	SelfConsumed [6]float64 `json:"self_consumed"`
	TollPayment  [6]float64 `json:"toll_payment"`
}

func newRecordView(record *ingestion.EnergyRecord) recordView {
	return recordView{
		ID:           record.ID,
		FileID:       record.FileID,
		CUPS:         record.CUPS,
		Installation: record.Installation,
		PeriodStart:  record.PeriodStart.Format(ingestion.DateLayout),
		PeriodEnd:    record.PeriodEnd.Format(ingestion.DateLayout),
		Type:         record.Type,
		NetGenerated: [6]float64(record.NetGenerated),
		SelfConsumed: [6]float64(record.SelfConsumed),
		TollPayment:  [6]float64(record.TollPayment),
	}
}
