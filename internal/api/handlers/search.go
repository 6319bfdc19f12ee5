package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloo-solutions/codelens/internal/api"
	"github.com/cloo-solutions/codelens/internal/domain"
)

type SearchService interface {
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchResponse struct {
	Query           string                `json:"query"`
	Results         []domain.SearchResult `json:"results"`
	TotalFound      int                   `json:"total_found"`
	DurationSeconds float64               `json:"duration_seconds"`
}

func searchToResponse(resp *domain.SearchResponse) *SearchResponse {
	out := &SearchResponse{
		Query:           resp.Query,
		Results:         resp.Results,
		TotalFound:      resp.TotalFound,
		DurationSeconds: resp.Duration.Seconds(),
	}
	if out.Results == nil {
		out.Results = []domain.SearchResult{}
	}
	return out
}

// searchBody wraps the domain request so an absent include_content can be
// told apart from an explicit false; content is included unless the caller
// opts out.
type searchBody struct {
	domain.SearchRequest
	IncludeContent *bool `json:"include_content"`
}

// Search handles POST /search with a JSON body.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := body.SearchRequest
	req.IncludeContent = body.IncludeContent == nil || *body.IncludeContent

	for i, raw := range req.Languages {
		lang, err := domain.ParseLanguage(string(raw))
		if err != nil {
			api.HandleError(w, err)
			return
		}
		req.Languages[i] = lang
	}
	for i, raw := range req.NodeTypes {
		nt, err := domain.ParseNodeType(string(raw))
		if err != nil {
			api.HandleError(w, err)
			return
		}
		req.NodeTypes[i] = nt
	}

	h.run(w, r, &req)
}

// SearchGet handles GET /search?q=...&top_k=...&language=...&node_type=...&file_prefix=...
func (h *SearchHandler) SearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := domain.SearchRequest{
		Query:          q.Get("q"),
		FilePathPrefix: q.Get("file_prefix"),
		IncludeContent: parseBool(q.Get("include_content"), true),
	}

	if raw := q.Get("top_k"); raw != "" {
		topK, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid top_k")
			return
		}
		req.TopK = topK
	}

	for _, raw := range splitParam(q["language"]) {
		lang, err := domain.ParseLanguage(raw)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		req.Languages = append(req.Languages, lang)
	}

	for _, raw := range splitParam(q["node_type"]) {
		nt, err := domain.ParseNodeType(raw)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		req.NodeTypes = append(req.NodeTypes, nt)
	}

	h.run(w, r, &req)
}

func (h *SearchHandler) run(w http.ResponseWriter, r *http.Request, req *domain.SearchRequest) {
	req.Normalize()
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	resp, err := h.svc.Search(r.Context(), req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, searchToResponse(resp))
}

// splitParam accepts both repeated parameters and comma-separated values.
func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseBool(raw string, fallback bool) bool {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}
