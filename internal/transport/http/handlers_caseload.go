package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	cmodels "licences/internal/caseload/models"
	dErrors "licences/pkg/domain-errors"
	"licences/pkg/platform/httputil"
)

// CaseloadService builds caseloads.
type CaseloadService interface {
	CaseloadForStaff(ctx context.Context, staffIdentifier int64) ([]cmodels.CaseView, error)
	CaseloadForTeams(ctx context.Context, teamCodes []string) ([]cmodels.CaseView, error)
	CaseloadForPrisons(ctx context.Context, prisonCodes []string) ([]cmodels.CaseView, error)
}

type caseloadHandler struct {
	caseload CaseloadService
	logger   *slog.Logger
}

func newCaseloadHandler(caseload CaseloadService, logger *slog.Logger) *caseloadHandler {
	return &caseloadHandler{caseload: caseload, logger: logger}
}

func (h *caseloadHandler) Register(r chi.Router) {
	r.Get("/caseload/staff/{staffIdentifier}", h.handleStaff)
	r.Get("/caseload/teams", h.handleTeams)
	r.Get("/caseload/prisons", h.handlePrisons)
}

type caseloadResponse struct {
	Cases []cmodels.CaseView `json:"cases"`
}

func (h *caseloadHandler) handleStaff(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "staffIdentifier"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "staff identifier must be a number"))
		return
	}
	views, err := h.caseload.CaseloadForStaff(r.Context(), id)
	h.respond(w, r, views, err)
}

func (h *caseloadHandler) handleTeams(w http.ResponseWriter, r *http.Request) {
	views, err := h.caseload.CaseloadForTeams(r.Context(), codes(r))
	h.respond(w, r, views, err)
}

func (h *caseloadHandler) handlePrisons(w http.ResponseWriter, r *http.Request) {
	views, err := h.caseload.CaseloadForPrisons(r.Context(), codes(r))
	h.respond(w, r, views, err)
}

func (h *caseloadHandler) respond(w http.ResponseWriter, r *http.Request, views []cmodels.CaseView, err error) {
	if err != nil {
		h.logger.WarnContext(r.Context(), "caseload query failed", "path", r.URL.Path, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if views == nil {
		views = []cmodels.CaseView{}
	}
	httputil.WriteJSON(w, http.StatusOK, caseloadResponse{Cases: views})
}

// codes reads repeated and comma separated ?code= parameters.
func codes(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["code"] {
		for c := range strings.SplitSeq(v, ",") {
			if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}
