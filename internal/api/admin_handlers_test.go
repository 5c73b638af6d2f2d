package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xmlup/internal/jobs"
	"github.com/vrsandeep/xmlup/internal/testutil"
)

func TestAdminHandlers(t *testing.T) {
	server, app := testutil.SetupTestServer(t, nil)
	router := server.Router()

	t.Run("Get Version", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/version", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"version":"test"}`, rr.Body.String())
	})

	t.Run("Health", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Jobs Status", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/admin/jobs/status", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var statuses []jobs.JobStatus
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &statuses))
		require.Len(t, statuses, 1)
		assert.Equal(t, jobs.InboxSweepJobID, statuses[0].ID)
	})

	t.Run("Run Inbox Sweep", func(t *testing.T) {
		testutil.WriteDocuments(t, app.Config().Inbox.Path, testutil.Document{Name: "a.xml", Body: "<a>1</a>"})

		body := bytes.NewBufferString(`{"job_id":"inbox-sweep"}`)
		req, _ := http.NewRequest("POST", "/api/admin/jobs/run", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

		assert.Eventually(t, func() bool {
			st, _ := app.Coordinator().Status("a.xml")
			return st == "success"
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("Run Unknown Job", func(t *testing.T) {
		body := bytes.NewBufferString(`{"job_id":"nope"}`)
		req, _ := http.NewRequest("POST", "/api/admin/jobs/run", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Bad Payload", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/admin/jobs/run", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
