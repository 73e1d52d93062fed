package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// withServer points the CLI at handler and captures stdout for the test.
func withServer(t *testing.T, format string, handler http.HandlerFunc) *bytes.Buffer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	prevURL, prevFmt, prevToken, prevUser, prevOut := serverURL, outputFmt, adminToken, adminUser, stdout
	serverURL, outputFmt, adminToken, adminUser, stdout = srv.URL, format, "secret", "ops.user", &out
	t.Cleanup(func() {
		serverURL, outputFmt, adminToken, adminUser, stdout = prevURL, prevFmt, prevToken, prevUser, prevOut
	})
	return &out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestJobsRunSendsAdminHeadersAndPrintsCounts(t *testing.T) {
	out := withServer(t, "table", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs/time-out/run", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Admin-Token"))
		writeJSON(w, http.StatusOK, jobRun{Job: "time-out", Selected: 3, Counts: map[string]int{"timed_out": 2, "reviewed": 1}})
	})

	require.NoError(t, runJobsRun(nil, []string{"time-out"}))
	assert.Contains(t, out.String(), "JOB")
	assert.Contains(t, out.String(), "reviewed=1,timed_out=2")
}

func TestJobsListJSON(t *testing.T) {
	out := withServer(t, "json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs", r.URL.Path)
		writeJSON(w, http.StatusOK, jobList{Jobs: []string{"activation", "expiry"}})
	})

	require.NoError(t, runJobsList(nil, nil))
	var got jobList
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []string{"activation", "expiry"}, got.Jobs)
}

func TestCaseloadTeamsJoinsCodes(t *testing.T) {
	out := withServer(t, "yaml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/caseload/teams", r.URL.Path)
		assert.Equal(t, "TEAM1,TEAM2", r.URL.Query().Get("code"))
		writeJSON(w, http.StatusOK, map[string]any{"cases": []map[string]any{
			{"nomsId": "A1234AA", "name": "Bob Smith", "licenceStatus": "NOT_STARTED", "kind": "CRD"},
		}})
	})

	require.NoError(t, caseloadTeamsCmd.RunE(caseloadTeamsCmd, []string{"TEAM1", "TEAM2"}))
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	cases, ok := got["cases"].([]any)
	require.True(t, ok)
	require.Len(t, cases, 1)
	assert.Equal(t, "A1234AA", cases[0].(map[string]any)["nomsId"])
}

func TestCaseloadStaffRejectsBadIdentifier(t *testing.T) {
	withServer(t, "table", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	err := caseloadStaffCmd.RunE(caseloadStaffCmd, []string{"abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staffIdentifier")
}

func TestLicenceOverridePostsReason(t *testing.T) {
	overrideReason = "data fix"
	t.Cleanup(func() { overrideReason = "" })

	out := withServer(t, "table", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licences/42/status", r.URL.Path)
		assert.Equal(t, "ops.user", r.Header.Get("X-Admin-User"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"statusCode":"INACTIVE","reason":"data fix"}`, string(body))
		writeJSON(w, http.StatusOK, map[string]any{"id": 42, "kind": "CRD", "statusCode": "INACTIVE", "typeCode": "AP", "nomsId": "A1234AA"})
	})

	require.NoError(t, runLicenceOverride(nil, []string{"42", "INACTIVE"}))
	assert.Contains(t, out.String(), "INACTIVE")
}

func TestLicenceEventsTable(t *testing.T) {
	out := withServer(t, "table", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licences/7/events", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]any{
			{"eventType": "TIMED_OUT", "username": "SYSTEM", "eventDescription": "Licence timed out", "eventTime": "2024-04-26T06:00:00Z"},
		})
	})

	require.NoError(t, runLicenceEvents(nil, []string{"7"}))
	assert.Contains(t, out.String(), "2024-04-26T06:00:00Z")
	assert.Contains(t, out.String(), "Licence timed out")
}

func TestServerErrorsSurfaceCodeAndDescription(t *testing.T) {
	withServer(t, "table", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "error_description": "licence 9 not found"})
	})

	err := runLicenceGet(nil, []string{"9"})
	require.Error(t, err)
	assert.Equal(t, "server returned 404: not_found: licence 9 not found", err.Error())
}

func TestUnsupportedOutputFormat(t *testing.T) {
	withServer(t, "xml", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, jobList{})
	})
	err := runJobsList(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
