package assignment_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconn "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/connection"
	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	assignsvc "github.com/vigneswara-propelo/harness-core-sub004/internal/service/assign"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/service/fleet"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/testutil"
	transportassignment "github.com/vigneswara-propelo/harness-core-sub004/internal/transport/assignment"
)

func init() { gin.SetMode(gin.TestMode) }

type routerDeps struct {
	delegates *testutil.StubDelegateStore
	conns     *testutil.StubConnectionStore
	sink      *testutil.CaptureSink
}

func newAssignmentRouter(t *testing.T) (*gin.Engine, routerDeps) {
	t.Helper()
	d := routerDeps{
		delegates: testutil.NewStubDelegateStore(),
		conns:     testutil.NewStubConnectionStore(),
		sink:      &testutil.CaptureSink{},
	}
	fleetSvc := fleet.NewService(d.delegates, d.sink)
	svc := assignsvc.NewService(
		d.delegates,
		testutil.NewStubEnvironmentStore(),
		testutil.NewStubInfraMappingStore(),
		testutil.NewStubProfileStore(),
		d.conns,
		d.sink,
		fleetSvc,
		testutil.FixedRand{},
	)

	r := gin.New()
	transportassignment.Register(r.Group("/assignment"), svc)
	transportassignment.RegisterConnectionResults(r.Group("/delegates"), svc)
	transportassignment.RegisterAccount(r.Group("/accounts"), svc)
	return r, d
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCanAssignEndpoint(t *testing.T) {
	r, d := newAssignmentRouter(t)
	d.delegates.Add(domaindelegate.Delegate{
		ID:            "d1",
		AccountID:     "acct",
		Status:        domaindelegate.StatusEnabled,
		LastHeartbeat: time.Now().UnixMilli(),
	})

	w := postJSON(t, r, "/assignment/can-assign", gin.H{
		"delegate_id": "d1",
		"task":        gin.H{"id": "task-1", "account_id": "acct"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		CanAssign bool `json:"can_assign"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.CanAssign)

	// The decision trail is persisted before the response goes out.
	assert.Len(t, d.sink.Saved, 1)
}

func TestCanAssignEndpoint_BadRequest(t *testing.T) {
	r, _ := newAssignmentRouter(t)

	w := postJSON(t, r, "/assignment/can-assign", gin.H{"task": gin.H{"id": "task-1"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWhitelistedEndpoint_EmptyListNotNull(t *testing.T) {
	r, _ := newAssignmentRouter(t)

	w := postJSON(t, r, "/assignment/whitelisted", gin.H{
		"task": gin.H{"id": "task-1", "account_id": "acct"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"delegate_ids": []}`, w.Body.String())
}

func TestFirstAttemptEndpoint(t *testing.T) {
	r, d := newAssignmentRouter(t)
	d.delegates.Add(domaindelegate.Delegate{
		ID:            "d1",
		AccountID:     "acct",
		Status:        domaindelegate.StatusEnabled,
		LastHeartbeat: time.Now().UnixMilli(),
	})

	w := postJSON(t, r, "/assignment/first-attempt", gin.H{
		"task": gin.H{"id": "task-1", "account_id": "acct"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"delegate_id": "d1"}`, w.Body.String())
}

func TestShouldValidateEndpoint(t *testing.T) {
	r, _ := newAssignmentRouter(t)

	w := postJSON(t, r, "/assignment/should-validate", gin.H{
		"delegate_id": "d1",
		"task":        gin.H{"id": "task-1", "account_id": "acct"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"should_validate": true}`, w.Body.String())
}

func TestErrorMessageEndpoint(t *testing.T) {
	r, _ := newAssignmentRouter(t)

	w := postJSON(t, r, "/assignment/error-message", gin.H{
		"reason": "DELEGATE_TIMEOUT",
		"task":   gin.H{"id": "task-1", "account_id": "acct"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "There were no active delegates to complete the task."}`, w.Body.String())
}

func TestSaveConnectionResultsEndpoint(t *testing.T) {
	r, d := newAssignmentRouter(t)

	w := postJSON(t, r, "/delegates/connection-results", gin.H{
		"results": []gin.H{{
			"account_id":      "acct",
			"delegate_id":     "d1",
			"criteria":        "https://one.example.com",
			"validated":       true,
			"last_updated_at": time.Now().UnixMilli(),
		}},
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	stored, ok := d.conns.Result("d1", "https://one.example.com")
	require.True(t, ok)
	assert.True(t, stored.Validated)
}

func domainconnResult(accountID, delegateID string) domainconn.Result {
	return domainconn.Result{
		AccountID:     accountID,
		DelegateID:    delegateID,
		Criteria:      "https://one.example.com",
		Validated:     true,
		LastUpdatedAt: time.Now().UnixMilli(),
	}
}

func TestClearConnectionResultsEndpoint(t *testing.T) {
	r, d := newAssignmentRouter(t)
	d.conns.Put(domainconnResult("acct", "d1"))
	d.conns.Put(domainconnResult("acct", "d2"))

	req := httptest.NewRequest(http.MethodDelete, "/accounts/acct/connection-results?delegateId=d1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := d.conns.Result("d1", "https://one.example.com")
	assert.False(t, ok)
	_, ok = d.conns.Result("d2", "https://one.example.com")
	assert.True(t, ok)
}
