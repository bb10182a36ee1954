package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"impactmatrix/api/internal/archive"
	"impactmatrix/api/internal/export"
	"impactmatrix/api/internal/filter"
	"impactmatrix/api/internal/search"
	"impactmatrix/api/internal/store"
)

const maxBodyBytes = 1 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
	logger     zerolog.Logger
}

func NewHTTPServer(service *Service, corsOrigin string, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		logger:     logger.With().Str("component", "http").Logger(),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withMiddleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", s.service.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Head("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
		r.Head("/ready", s.handleReady)

		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", s.handleListOrganizations)
			r.Post("/", s.handleCreateOrganization)
			r.Get("/{id}", s.handleGetOrganization)
			r.Put("/{id}", s.handleUpdateOrganization)
			r.Delete("/{id}", s.handleDeleteOrganization)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Get("/{id}", s.handleGetProject)
			r.Put("/{id}", s.handleUpdateProject)
			r.Delete("/{id}", s.handleDeleteProject)
			r.Post("/{id}/duplicate", s.handleDuplicateProject)
		})
		r.Route("/matrices", func(r chi.Router) {
			r.Get("/", s.handleListMatrices)
			r.Post("/", s.handleCreateMatrix)
			r.Get("/{id}", s.handleGetMatrix)
			r.Put("/{id}", s.handleUpdateMatrix)
			r.Delete("/{id}", s.handleDeleteMatrix)
			r.Post("/{id}/duplicate", s.handleDuplicateMatrix)
			r.Post("/{id}/reset-positions", s.handleResetPositions)
			r.Post("/{id}/view", s.handleViewMatrix)
			r.Get("/{id}/filters/current", s.handleGetWorkingFilters)
			r.Put("/{id}/filters/current", s.handleSaveWorkingFilters)
			r.Delete("/{id}/filters/current", s.handleClearWorkingFilters)
			r.Post("/{id}/export", s.handleExport)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})
		r.Route("/ideas", func(r chi.Router) {
			r.Get("/", s.handleListIdeas)
			r.Post("/", s.handleCreateIdea)
			r.Get("/{id}", s.handleGetIdea)
			r.Put("/{id}", s.handleUpdateIdea)
			r.Delete("/{id}", s.handleDeleteIdea)
			r.Put("/{id}/position", s.handleUpdateIdeaScores)
			r.Put("/{id}/custom-position", s.handleSetCustomPosition)
			r.Delete("/{id}/custom-position", s.handleResetCustomPosition)
		})
		r.Route("/filter-presets", func(r chi.Router) {
			r.Get("/", s.handleListFilterPresets)
			r.Post("/", s.handleCreateFilterPreset)
			r.Get("/{id}", s.handleGetFilterPreset)
			r.Delete("/{id}", s.handleDeleteFilterPreset)
		})
		r.Get("/search", s.handleSearch)
	})
	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database":    map[string]any{"status": "ok"},
		"filterState": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}
	if err := s.service.PingFilterStore(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["filterState"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

// Organizations

func (s *HTTPServer) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListOrganizations(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var body OrganizationInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	org, err := s.service.CreateOrganization(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (s *HTTPServer) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := s.service.GetOrganization(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (s *HTTPServer) handleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var body OrganizationPatch
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	org, err := s.service.UpdateOrganization(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (s *HTTPServer) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteOrganization(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w)
}

// Projects

func (s *HTTPServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListProjects(r.Context(), r.URL.Query().Get("organizationId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body ProjectInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	project, err := s.service.CreateProject(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *HTTPServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *HTTPServer) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var body ProjectPatch
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	project, err := s.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *HTTPServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *HTTPServer) handleDuplicateProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.service.DuplicateProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// Matrices

func (s *HTTPServer) handleListMatrices(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListMatrices(r.Context(), r.URL.Query().Get("projectId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateMatrix(w http.ResponseWriter, r *http.Request) {
	var body MatrixInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	matrix, err := s.service.CreateMatrix(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, matrix)
}

func (s *HTTPServer) handleGetMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := s.service.GetMatrix(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

func (s *HTTPServer) handleUpdateMatrix(w http.ResponseWriter, r *http.Request) {
	var body MatrixPatch
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	matrix, err := s.service.UpdateMatrix(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

func (s *HTTPServer) handleDeleteMatrix(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteMatrix(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *HTTPServer) handleDuplicateMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := s.service.DuplicateMatrix(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, matrix)
}

func (s *HTTPServer) handleResetPositions(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.ResetMatrixPositions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": count})
}

func (s *HTTPServer) handleViewMatrix(w http.ResponseWriter, r *http.Request) {
	matrixID := chi.URLParam(r, "id")
	if presetID := strings.TrimSpace(r.URL.Query().Get("presetId")); presetID != "" {
		view, err := s.service.ViewMatrixWithPreset(r.Context(), matrixID, presetID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}

	state, err := decodeFilterState(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.service.ViewMatrix(r.Context(), matrixID, state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleGetWorkingFilters(w http.ResponseWriter, r *http.Request) {
	current, err := s.service.GetWorkingFilters(r.Context(), chi.URLParam(r, "id"), clientID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *HTTPServer) handleSaveWorkingFilters(w http.ResponseWriter, r *http.Request) {
	state, err := decodeFilterState(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	current, err := s.service.SaveWorkingFilters(r.Context(), chi.URLParam(r, "id"), clientID(r), state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *HTTPServer) handleClearWorkingFilters(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearWorkingFilters(r.Context(), chi.URLParam(r, "id"), clientID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	var body ExportInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	body.MatrixID = chi.URLParam(r, "id")

	outcome, err := s.service.Export(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result := outcome.Result
	w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	if outcome.Archived != nil {
		w.Header().Set("X-Archive-Key", outcome.Archived.Key)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// Categories

func (s *HTTPServer) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListCategories(r.Context(), r.URL.Query().Get("matrixId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var body CategoryInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	category, err := s.service.CreateCategory(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *HTTPServer) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *HTTPServer) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var body CategoryPatch
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	category, err := s.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *HTTPServer) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w)
}

// Ideas

func (s *HTTPServer) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, err := s.service.ListIdeas(r.Context(), store.IdeaQuery{
		MatrixID:   query.Get("matrixId"),
		CategoryID: query.Get("categoryId"),
		Status:     store.IdeaStatus(strings.TrimSpace(query.Get("status"))),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	var body IdeaInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	idea, err := s.service.CreateIdea(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *HTTPServer) handleGetIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := s.service.GetIdea(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *HTTPServer) handleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	var body IdeaPatch
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	idea, err := s.service.UpdateIdea(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *HTTPServer) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteIdea(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *HTTPServer) handleUpdateIdeaScores(w http.ResponseWriter, r *http.Request) {
	var body ScoresInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	idea, err := s.service.UpdateIdeaScores(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *HTTPServer) handleSetCustomPosition(w http.ResponseWriter, r *http.Request) {
	var body PositionInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	idea, err := s.service.SetCustomPosition(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *HTTPServer) handleResetCustomPosition(w http.ResponseWriter, r *http.Request) {
	idea, err := s.service.ResetCustomPosition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// Filter presets

func (s *HTTPServer) handleListFilterPresets(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListFilterPresets(r.Context(), r.URL.Query().Get("matrixId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateFilterPreset(w http.ResponseWriter, r *http.Request) {
	var body FilterPresetInput
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	preset, err := s.service.CreateFilterPreset(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *HTTPServer) handleGetFilterPreset(w http.ResponseWriter, r *http.Request) {
	preset, err := s.service.GetFilterPreset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func (s *HTTPServer) handleDeleteFilterPreset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteFilterPreset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := queryInt(query.Get("limit"), "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	offset, err := queryInt(query.Get("offset"), "offset")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), search.Query{
		Text:     query.Get("q"),
		MatrixID: strings.TrimSpace(query.Get("matrixId")),
		Status:   strings.TrimSpace(query.Get("status")),
		Limit:    limit,
		Offset:   offset,
	}))
}

// fail maps err to an error response. Unexpected errors are logged and
// reported without detail.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		elapsed := time.Since(started)
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		s.service.metrics.observeRequest(r.Method, route, writer.status, elapsed)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Client-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID, X-Archive-Key")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// decodeBody decodes a JSON body into target. An empty body leaves target
// untouched. Fields of the wrong type are validation errors.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return validationError(fmt.Sprintf("%s has an invalid type", typeErr.Field),
				map[string]any{"field": typeErr.Field})
		}
		return domainError(http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
	}
	return nil
}

// decodeFilterState reads a filter state body. An empty body is the default
// state.
func decodeFilterState(r *http.Request) (filter.State, error) {
	if r.Body == nil {
		return filter.Default(), nil
	}
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return filter.State{}, domainError(http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return filter.Default(), nil
	}
	if !json.Valid(raw) {
		return filter.State{}, domainError(http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
	}
	return filter.Parse(raw)
}

func clientID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Client-ID"))
}

func queryInt(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationError(field+" must be an integer", map[string]any{"field": field})
	}
	return parsed, nil
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, filter.ErrInvalidState):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'xlsx' or 'pdf'", nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF export is not available on this server", nil
	case errors.Is(err, archive.ErrDisabled):
		return http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "Export archival is not configured", nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return http.StatusNotFound, "NOT_FOUND", "Referenced entity not found", nil
		case "23514":
			return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Value violates a constraint", map[string]any{"constraint": pgErr.ConstraintName}
		}
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
