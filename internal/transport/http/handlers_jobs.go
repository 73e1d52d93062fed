package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"licences/internal/licence/workers"
	"licences/pkg/platform/httputil"
)

// JobRunner runs lifecycle jobs by name.
type JobRunner interface {
	Names() []string
	Run(ctx context.Context, name string) (workers.Result, error)
}

type jobHandler struct {
	jobs   JobRunner
	logger *slog.Logger
}

func newJobHandler(jobs JobRunner, logger *slog.Logger) *jobHandler {
	return &jobHandler{jobs: jobs, logger: logger}
}

func (h *jobHandler) Register(r chi.Router) {
	r.Get("/jobs", h.handleList)
	r.Post("/jobs/{name}/run", h.handleRun)
}

type jobListResponse struct {
	Jobs []string `json:"jobs"`
}

type jobRunResponse struct {
	Job      string         `json:"job"`
	Selected int            `json:"selected"`
	Counts   map[string]int `json:"counts,omitempty"`
	Skipped  string         `json:"skipped,omitempty"`
}

func (h *jobHandler) handleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, jobListResponse{Jobs: h.jobs.Names()})
}

func (h *jobHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := h.jobs.Run(httputil.Detach(r.Context()), name)
	if err != nil {
		h.logger.WarnContext(r.Context(), "manual job run failed", "job", name, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, jobRunResponse{
		Job:      name,
		Selected: res.Selected,
		Counts:   res.Counts,
		Skipped:  res.Skipped,
	})
}
