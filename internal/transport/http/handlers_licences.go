package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"licences/internal/licence/models"
	"licences/internal/licence/service"
	dErrors "licences/pkg/domain-errors"
	"licences/pkg/platform/httputil"
	s "licences/pkg/string"
)

// LicenceService is the subset of the licence service exposed over HTTP.
type LicenceService interface {
	GetLicence(ctx context.Context, id int64) (models.Licence, error)
	ListEvents(ctx context.Context, id int64) ([]models.LicenceEvent, error)
	OverrideStatus(ctx context.Context, req service.OverrideStatusRequest, actor models.Actor) (models.Licence, error)
}

type licenceHandler struct {
	licences LicenceService
	logger   *slog.Logger
}

func newLicenceHandler(licences LicenceService, logger *slog.Logger) *licenceHandler {
	return &licenceHandler{licences: licences, logger: logger}
}

// Register mounts the read routes directly and the override behind admin.
func (h *licenceHandler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/licences/{id}", h.handleGet)
	r.Get("/licences/{id}/events", h.handleEvents)
	r.With(admin).Post("/licences/{id}/status", h.handleOverride)
}

type licenceResponse struct {
	ID             int64            `json:"id"`
	Kind           models.Kind      `json:"kind"`
	Status         models.Status    `json:"statusCode"`
	TypeCode       models.TypeCode  `json:"typeCode"`
	LicenceVersion string           `json:"licenceVersion"`
	NomsID         string           `json:"nomsId"`
	BookingID      int64            `json:"bookingId"`
	CRN            string           `json:"crn,omitempty"`
	PrisonCode     string           `json:"prisonCode,omitempty"`
	TeamCode       string           `json:"probationTeamCode,omitempty"`
	Dates          licenceDates     `json:"dates"`
	VersionOfID    *int64           `json:"versionOfId,omitempty"`
	ReviewDate     *time.Time       `json:"reviewDate,omitempty"`
	Conditions     conditionsCounts `json:"conditions"`
}

type licenceDates struct {
	ConditionalReleaseDate     *civil.Date `json:"conditionalReleaseDate,omitempty"`
	ActualReleaseDate          *civil.Date `json:"actualReleaseDate,omitempty"`
	LicenceStartDate           *civil.Date `json:"licenceStartDate,omitempty"`
	LicenceExpiryDate          *civil.Date `json:"licenceExpiryDate,omitempty"`
	TopupSupervisionExpiryDate *civil.Date `json:"topupSupervisionExpiryDate,omitempty"`
	PostRecallReleaseDate      *civil.Date `json:"postRecallReleaseDate,omitempty"`
}

type conditionsCounts struct {
	Standard   int `json:"standard"`
	Additional int `json:"additional"`
	Bespoke    int `json:"bespoke"`
}

func toLicenceResponse(l models.Licence) licenceResponse {
	return licenceResponse{
		ID:             l.ID,
		Kind:           l.Kind(),
		Status:         l.Status(),
		TypeCode:       l.TypeCode,
		LicenceVersion: l.LicenceVersion,
		NomsID:         l.Offender.NomsID,
		BookingID:      l.Offender.BookingID,
		CRN:            l.Offender.CRN,
		PrisonCode:     l.Prison.Code,
		TeamCode:       l.Probation.TeamCode,
		Dates: licenceDates{
			ConditionalReleaseDate:     l.Dates.ConditionalReleaseDate,
			ActualReleaseDate:          l.Dates.ActualReleaseDate,
			LicenceStartDate:           l.Dates.LicenceStartDate,
			LicenceExpiryDate:          l.Dates.LicenceExpiryDate,
			TopupSupervisionExpiryDate: l.Dates.TopupSupervisionExpiryDate,
			PostRecallReleaseDate:      l.Dates.PostRecallReleaseDate,
		},
		VersionOfID: l.VersionOfID,
		ReviewDate:  l.ReviewDate(),
		Conditions: conditionsCounts{
			Standard:   len(l.StandardConditions),
			Additional: len(l.AdditionalConditions),
			Bespoke:    len(l.BespokeConditions),
		},
	}
}

type eventResponse struct {
	Type        models.EventType `json:"eventType"`
	Username    string           `json:"username"`
	Description string           `json:"eventDescription"`
	At          time.Time        `json:"eventTime"`
}

func (h *licenceHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := licenceID(w, r)
	if !ok {
		return
	}
	l, err := h.licences.GetLicence(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLicenceResponse(l))
}

func (h *licenceHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := licenceID(w, r)
	if !ok {
		return
	}
	evs, err := h.licences.ListEvents(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(evs))
	for _, e := range evs {
		out = append(out, eventResponse{Type: e.Type, Username: e.Username, Description: e.Description, At: e.At})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type overrideRequest struct {
	Status string `json:"statusCode"`
	Reason string `json:"reason"`
}

func (req *overrideRequest) Normalize() {
	s.TrimStrings(&req.Status, &req.Reason)
	req.Status = strings.ToUpper(req.Status)
}

func (req *overrideRequest) Validate() error {
	if !models.Status(req.Status).IsPersisted() {
		return dErrors.New(dErrors.CodeValidation, "unknown status "+req.Status)
	}
	return nil
}

func (h *licenceHandler) handleOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := licenceID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[overrideRequest](w, r, h.logger)
	if !ok {
		return
	}
	actor := models.Actor{Username: r.Header.Get("X-Admin-User")}
	if actor.Username == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "X-Admin-User header is required"))
		return
	}
	l, err := h.licences.OverrideStatus(r.Context(), service.OverrideStatusRequest{
		LicenceID: id,
		Status:    models.Status(req.Status),
		Reason:    req.Reason,
	}, actor)
	if err != nil {
		h.logger.WarnContext(r.Context(), "status override failed", "licence_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "licence status overridden",
		"log_type", "audit",
		"licence_id", id,
		"status", l.Status(),
		"actor", actor.Username,
	)
	httputil.WriteJSON(w, http.StatusOK, toLicenceResponse(l))
}

func licenceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "licence id must be a positive number"))
		return 0, false
	}
	return id, true
}
