package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-intel/internal/export"
	"github.com/sells-group/address-intel/internal/model"
	"github.com/sells-group/address-intel/internal/pipeline"
	"github.com/sells-group/address-intel/internal/tabular"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Error kinds carried in the 4xx/5xx envelope. Per-company failures are not
// request errors; they ride in each row's status.
const (
	kindInvalidJSON         = "invalid_json"
	kindMissingField        = "missing_field"
	kindEmptyCompanies      = "empty_companies"
	kindTooManyCompanies    = "too_many_companies"
	kindUnsupportedFileType = "unsupported_file_type"
	kindMissingColumns      = "missing_columns"
	kindEmptyFile           = "empty_file"
	kindFileTooLarge        = "file_too_large"
	kindUnknownInputType    = "unknown_input_type"
	kindInternal            = "internal"
)

type companyRequest struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

type batchRequest struct {
	Companies []companyRequest `json:"companies"`
}

type agenticRequest struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Options agenticOptions  `json:"options"`
}

type agenticOptions struct {
	Deep              bool `json:"deep"`
	IncludeCandidates bool `json:"include_candidates"`
}

type processResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Summary *model.BatchSummary `json:"summary,omitempty"`
	Data    []model.ResultRow   `json:"data"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": serviceDescription,
		"endpoints": map[string]string{
			"/health":          "API health check",
			"/process-company": "Process a single company",
			"/process-batch":   "Process multiple companies",
			"/webhook-process": "Process an uploaded CSV or XLSX file",
			"/agentic-process": "Typed dispatch with deep-crawl options",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"version":            serviceVersion,
		"enrichment_enabled": s.pipe.EnrichmentEnabled(),
	})
}

func (s *Server) handleProcessCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidJSON, "request body is not valid JSON")
		return
	}

	s.runCompany(w, r, req, pipeline.ProcessOptions{})
}

func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidJSON, "request body is not valid JSON")
		return
	}

	s.runBatch(w, r, toCompanies(req.Companies), pipeline.ProcessOptions{})
}

func (s *Server) handleWebhookProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.Server.MaxUploadMB)<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, kindFileTooLarge,
				fmt.Sprintf("upload exceeds %d MB", s.cfg.Server.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, kindMissingField, `multipart form field "file" is required`)
		return
	}
	defer file.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(header.Filename))

	var companies []model.Company
	switch ext {
	case ".csv":
		companies, err = tabular.ReadCompaniesCSV(file, tabular.Options{})
	case ".xlsx":
		companies, err = readUploadedXLSX(file)
	default:
		writeError(w, http.StatusBadRequest, kindUnsupportedFileType, "only .csv and .xlsx uploads are supported")
		return
	}
	if err != nil {
		writeTableError(w, err)
		return
	}

	if limit := s.cfg.Batch.MaxCompanies; limit > 0 && len(companies) > limit {
		writeError(w, http.StatusBadRequest, kindTooManyCompanies,
			fmt.Sprintf("file holds %d companies, limit is %d", len(companies), limit))
		return
	}

	rows, summary := s.pipe.ProcessBatch(r.Context(), companies, pipeline.ProcessOptions{})

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, processResponse{
			Status:  "success",
			Message: fmt.Sprintf("processed %d companies", summary.Total),
			Summary: &summary,
			Data:    rows,
		})
		return
	}

	base := strings.TrimSuffix(filepath.Base(header.Filename), ext)
	if base == "" {
		base = "companies"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_processed.xlsx", base))
	if err := export.WriteXLSX(w, rows); err != nil {
		// Headers are already out; all we can do is log.
		zap.L().Error("server: stream xlsx", zap.Error(err))
	}
}

func (s *Server) handleAgenticProcess(w http.ResponseWriter, r *http.Request) {
	var req agenticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidJSON, "request body is not valid JSON")
		return
	}

	opts := pipeline.ProcessOptions{
		Deep:           req.Options.Deep,
		IncludeDetails: req.Options.IncludeCandidates,
	}

	switch req.Type {
	case "single_company":
		var company companyRequest
		if len(req.Data) == 0 {
			writeError(w, http.StatusBadRequest, kindMissingField, "data is required")
			return
		}
		if err := json.Unmarshal(req.Data, &company); err != nil {
			writeError(w, http.StatusBadRequest, kindInvalidJSON, "data is not a company object")
			return
		}
		s.runCompany(w, r, company, opts)

	case "company_list":
		var companies []companyRequest
		if len(req.Data) == 0 {
			writeError(w, http.StatusBadRequest, kindMissingField, "data is required")
			return
		}
		if err := json.Unmarshal(req.Data, &companies); err != nil {
			writeError(w, http.StatusBadRequest, kindInvalidJSON, "data is not a company list")
			return
		}
		s.runBatch(w, r, toCompanies(companies), opts)

	default:
		writeError(w, http.StatusBadRequest, kindUnknownInputType, fmt.Sprintf("unknown input type %q", req.Type))
	}
}

// runCompany validates and processes one company, writing the standard
// response envelope.
func (s *Server) runCompany(w http.ResponseWriter, r *http.Request, req companyRequest, opts pipeline.ProcessOptions) {
	if strings.TrimSpace(req.Website) == "" {
		writeError(w, http.StatusBadRequest, kindMissingField, "website is required")
		return
	}

	row := s.pipe.ProcessCompany(r.Context(), model.Company{Name: req.Name, Website: req.Website}, opts)

	label := req.Name
	if label == "" {
		label = req.Website
	}
	writeJSON(w, http.StatusOK, processResponse{
		Status:  "success",
		Message: fmt.Sprintf("processed %s", label),
		Data:    []model.ResultRow{row},
	})
}

// runBatch validates and processes a company list, writing the standard
// response envelope with a summary.
func (s *Server) runBatch(w http.ResponseWriter, r *http.Request, companies []model.Company, opts pipeline.ProcessOptions) {
	if len(companies) == 0 {
		writeError(w, http.StatusBadRequest, kindEmptyCompanies, "companies list is empty")
		return
	}
	if limit := s.cfg.Batch.MaxCompanies; limit > 0 && len(companies) > limit {
		writeError(w, http.StatusBadRequest, kindTooManyCompanies,
			fmt.Sprintf("batch of %d exceeds the limit of %d", len(companies), limit))
		return
	}

	rows, summary := s.pipe.ProcessBatch(r.Context(), companies, opts)

	writeJSON(w, http.StatusOK, processResponse{
		Status:  "success",
		Message: fmt.Sprintf("processed %d companies", summary.Total),
		Summary: &summary,
		Data:    rows,
	})
}

// readUploadedXLSX spools the upload to disk first; tealeg/xlsx needs a
// file path.
func readUploadedXLSX(file io.Reader) ([]model.Company, error) {
	tmpFile, err := os.CreateTemp("", "addrintel-upload-*.xlsx")
	if err != nil {
		return nil, eris.Wrap(err, "server: create temp xlsx")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := io.Copy(tmpFile, file); err != nil {
		_ = tmpFile.Close()
		return nil, eris.Wrap(err, "server: spool upload")
	}
	_ = tmpFile.Close()

	return tabular.ReadCompanies(tmpPath, tabular.Options{})
}

// writeTableError maps table-read failures onto the error envelope.
func writeTableError(w http.ResponseWriter, err error) {
	var missing *tabular.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, kindMissingColumns,
			fmt.Sprintf("file must contain columns: %s", strings.Join(missing.Missing, ", ")))
	case errors.Is(err, tabular.ErrNoRows):
		writeError(w, http.StatusBadRequest, kindEmptyFile, "uploaded file has no data rows")
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, kindUnsupportedFileType, "only .csv and .xlsx uploads are supported")
	default:
		zap.L().Error("server: read upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, kindInternal, "failed to read uploaded file")
	}
}

func toCompanies(reqs []companyRequest) []model.Company {
	companies := make([]model.Company, len(reqs))
	for i, c := range reqs {
		companies[i] = model.Company{Name: c.Name, Website: c.Website}
	}
	return companies
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Kind: kind, Message: message}})
}
