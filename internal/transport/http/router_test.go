package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmodels "licences/internal/caseload/models"
	"licences/internal/licence/licencetest"
	"licences/internal/licence/models"
	"licences/internal/licence/service"
	"licences/internal/licence/workers"
	"licences/internal/platform/health"
	"licences/internal/platform/metrics"
	dErrors "licences/pkg/domain-errors"
)

const adminToken = "ops-secret"

type jobsStub struct {
	ran []string
}

func (j *jobsStub) Names() []string { return []string{"activation", "time-out"} }

func (j *jobsStub) Run(_ context.Context, name string) (workers.Result, error) {
	if name != "time-out" {
		return workers.Result{}, dErrors.New(dErrors.CodeNotFound, "unknown job "+name)
	}
	j.ran = append(j.ran, name)
	return workers.Result{Selected: 2, Counts: map[string]int{"timed_out": 2}}, nil
}

type caseloadStub struct {
	teams []string
	err   error
}

func (c *caseloadStub) CaseloadForStaff(_ context.Context, id int64) ([]cmodels.CaseView, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []cmodels.CaseView{{NomsID: "A1234AA", LicenceStatus: models.StatusNotStarted}}, nil
}

func (c *caseloadStub) CaseloadForTeams(_ context.Context, teamCodes []string) ([]cmodels.CaseView, error) {
	c.teams = teamCodes
	return nil, nil
}

func (c *caseloadStub) CaseloadForPrisons(context.Context, []string) ([]cmodels.CaseView, error) {
	return nil, nil
}

type licencesStub struct {
	override *service.OverrideStatusRequest
	actor    models.Actor
}

func (l *licencesStub) GetLicence(_ context.Context, id int64) (models.Licence, error) {
	if id != 1 {
		return models.Licence{}, dErrors.New(dErrors.CodeNotFound, "licence not found")
	}
	return licencetest.WithStatus(licencetest.New(), 1, models.StatusApproved), nil
}

func (l *licencesStub) ListEvents(context.Context, int64) ([]models.LicenceEvent, error) {
	return []models.LicenceEvent{{LicenceID: 1, Type: models.EventCreated, Username: "COM_USER"}}, nil
}

func (l *licencesStub) OverrideStatus(_ context.Context, req service.OverrideStatusRequest, actor models.Actor) (models.Licence, error) {
	l.override, l.actor = &req, actor
	return licencetest.WithStatus(licencetest.New(), req.LicenceID, req.Status), nil
}

type fixture struct {
	router   http.Handler
	jobs     *jobsStub
	caseload *caseloadStub
	licences *licencesStub
}

func newFixture() *fixture {
	f := &fixture{jobs: &jobsStub{}, caseload: &caseloadStub{}, licences: &licencesStub{}}
	reg := prometheus.NewRegistry()
	f.router = NewRouter(Deps{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Health:     health.New("test"),
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		AdminToken: adminToken,
		Jobs:       f.jobs,
		Caseload:   f.caseload,
		Licences:   f.licences,
	})
	return f
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestJobRoutes(t *testing.T) {
	f := newFixture()

	t.Run("require the admin token", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/jobs/time-out/run", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, f.jobs.ran)
	})

	t.Run("list jobs", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/jobs", "", "X-Admin-Token", adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"activation", "time-out"}, decode[jobListResponse](t, rec).Jobs)
	})

	t.Run("run a job", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/jobs/time-out/run", "", "X-Admin-Token", adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[jobRunResponse](t, rec)
		assert.Equal(t, 2, got.Selected)
		assert.Equal(t, map[string]int{"timed_out": 2}, got.Counts)
	})

	t.Run("unknown job is not found", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/jobs/nope/run", "", "X-Admin-Token", adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCaseloadRoutes(t *testing.T) {
	f := newFixture()

	t.Run("staff caseload", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/caseload/staff/2000", "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[caseloadResponse](t, rec)
		require.Len(t, got.Cases, 1)
		assert.Equal(t, models.StatusNotStarted, got.Cases[0].LicenceStatus)
	})

	t.Run("non numeric staff identifier", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/caseload/staff/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("team codes are split and upper cased", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/caseload/teams?code=team1,%20team2&code=TEAM3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"TEAM1", "TEAM2", "TEAM3"}, f.caseload.teams)
		assert.JSONEq(t, `{"cases":[]}`, rec.Body.String())
	})

	t.Run("upstream outage is a bad gateway", func(t *testing.T) {
		f.caseload.err = dErrors.New(dErrors.CodeUnavailable, "probation unavailable")
		rec := f.do(http.MethodGet, "/caseload/staff/2000", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestLicenceRoutes(t *testing.T) {
	f := newFixture()

	t.Run("get licence", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/licences/1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[licenceResponse](t, rec)
		assert.Equal(t, models.StatusApproved, got.Status)
		assert.Equal(t, models.KindCRD, got.Kind)
		assert.Equal(t, "A1234AA", got.NomsID)
	})

	t.Run("missing licence", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/licences/2", "").Code)
	})

	t.Run("events", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/licences/1/events", "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[[]eventResponse](t, rec)
		require.Len(t, got, 1)
		assert.Equal(t, models.EventCreated, got[0].Type)
	})

	t.Run("override requires admin token", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/licences/1/status", `{"statusCode":"INACTIVE","reason":"duplicate"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, f.licences.override)
	})

	t.Run("override rejects unknown status", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/licences/1/status", `{"statusCode":"NOT_STARTED","reason":"x"}`,
			"X-Admin-Token", adminToken, "X-Admin-User", "ops")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("override", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/licences/1/status", `{"statusCode":" inactive ","reason":" duplicate "}`,
			"X-Admin-Token", adminToken, "X-Admin-User", "ops")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, f.licences.override)
		assert.Equal(t, models.StatusInactive, f.licences.override.Status)
		assert.Equal(t, "duplicate", f.licences.override.Reason)
		assert.Equal(t, "ops", f.licences.actor.Username)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health/live", "").Code)

	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "licences_http_requests_total")
}
