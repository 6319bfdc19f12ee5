package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/codelens/internal/api"
	"github.com/cloo-solutions/codelens/internal/domain"
)

type IndexRunner interface {
	Run(ctx context.Context, req *domain.IndexRequest) (*domain.IndexResponse, error)
}

type IndexHandler struct {
	runner IndexRunner
}

func NewIndexHandler(runner IndexRunner) *IndexHandler {
	return &IndexHandler{runner: runner}
}

type IndexRequestBody struct {
	SourcePath  string   `json:"source_path"`
	Languages   []string `json:"languages"`
	Incremental bool     `json:"incremental"`
	DryRun      bool     `json:"dry_run"`
}

type IndexResponseBody struct {
	TotalFiles      int      `json:"total_files"`
	TotalChunks     int      `json:"total_chunks"`
	IndexedChunks   int      `json:"indexed_chunks"`
	UpdatedChunks   int      `json:"updated_chunks"`
	DeletedChunks   int      `json:"deleted_chunks"`
	Errors          []string `json:"errors"`
	DurationSeconds float64  `json:"duration_seconds"`
}

func indexToResponse(resp *domain.IndexResponse) *IndexResponseBody {
	out := &IndexResponseBody{
		TotalFiles:      resp.TotalFiles,
		TotalChunks:     resp.TotalChunks,
		IndexedChunks:   resp.IndexedChunks,
		UpdatedChunks:   resp.UpdatedChunks,
		DeletedChunks:   resp.DeletedChunks,
		Errors:          resp.Errors,
		DurationSeconds: resp.DurationSeconds(),
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	return out
}

// Index handles POST /admin/index. The run executes synchronously; clients
// set dry_run to preview what a run would touch.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	var body IndexRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.SourcePath == "" {
		api.Error(w, http.StatusBadRequest, "source_path is required")
		return
	}

	req := domain.IndexRequest{
		SourcePath:  body.SourcePath,
		Incremental: body.Incremental,
		DryRun:      body.DryRun,
	}
	for _, raw := range body.Languages {
		lang, err := domain.ParseLanguage(raw)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		req.Languages = append(req.Languages, lang)
	}

	resp, err := h.runner.Run(r.Context(), &req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, indexToResponse(resp))
}
