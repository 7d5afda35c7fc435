package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/resumatch/internal/adapters/extract"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
)

// AnalyzeDependencies defines the interface for analysis operations.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, sub model.Submission) (model.Analysis, error)
}

// analyzeRequest mirrors the OpenAPI schema for POST /analyze.
type analyzeRequest struct {
	Candidate  string   `json:"candidate" validate:"required,max=256"`
	JobID      string   `json:"job_id" validate:"required,max=256"`
	ResumeText string   `json:"resume_text"`
	JDText     string   `json:"jd_text"`
	Keywords   []string `json:"keywords" validate:"omitempty,dive,required"`
}

func (r analyzeRequest) submission() model.Submission {
	return model.Submission{
		Candidate:  strings.TrimSpace(r.Candidate),
		JobID:      strings.TrimSpace(r.JobID),
		ResumeText: r.ResumeText,
		JDText:     r.JDText,
		Keywords:   r.Keywords,
	}
}

// AnalyzeHandler handles analysis requests.
type AnalyzeHandler struct {
	deps     AnalyzeDependencies
	validate *validator.Validate
	maxBytes int64
	log      logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies, v *validator.Validate, maxBytes int64, log logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, validate: v, maxBytes: maxBytes, log: log}
}

// HandleAnalyze handles POST /analyze requests. The body is either JSON or a
// multipart form carrying resume and jd files.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		req analyzeRequest
		err error
	)
	switch mediaType {
	case "multipart/form-data":
		req, err = h.decodeMultipart(r)
	default:
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			err = WrapKind(op, ErrBadRequest, err)
		}
	}
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		fail(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}

	analysis, err := h.deps.Analyze(r.Context(), req.submission())
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *AnalyzeHandler) decodeMultipart(r *http.Request) (analyzeRequest, error) {
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return analyzeRequest{}, err
		}
		return analyzeRequest{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	req := analyzeRequest{
		Candidate: r.FormValue("candidate"),
		JobID:     r.FormValue("job_id"),
		Keywords:  splitKeywords(r.FormValue("keywords")),
	}

	var err error
	if req.ResumeText, err = formText(r, "resume", "resume_text"); err != nil {
		return analyzeRequest{}, err
	}
	if req.JDText, err = formText(r, "jd", "jd_text"); err != nil {
		return analyzeRequest{}, err
	}
	return req, nil
}

// formText returns the text of the uploaded file named fileField, or the
// plain form value textField when no file was sent.
func formText(r *http.Request, fileField, textField string) (string, error) {
	file, header, err := r.FormFile(fileField)
	if errors.Is(err, http.ErrMissingFile) {
		return r.FormValue(textField), nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBadRequest, fileField, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrBadRequest, fileField, err)
	}
	return extract.Text(data, uploadHint(header))
}

// uploadHint prefers the filename and falls back to the part's content type.
func uploadHint(header *multipart.FileHeader) string {
	if extract.Detect(nil, header.Filename) != extract.FormatUnknown {
		return header.Filename
	}
	return header.Header.Get("Content-Type")
}

func splitKeywords(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
