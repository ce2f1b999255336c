package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubReconciler records the ids it was asked to reconcile
type stubReconciler struct {
	seen []string
}

func (s *stubReconciler) ReconcileInvoice(ctx context.Context, realmID, externalID string) (service.Outcome, error) {
	s.seen = append(s.seen, externalID)
	return service.OutcomeCreated, nil
}

func (s *stubReconciler) ReconcilePayment(ctx context.Context, realmID, externalID string) (service.Outcome, error) {
	s.seen = append(s.seen, externalID)
	return service.OutcomeNoOp, nil
}

// recordingQueue keeps submitted jobs instead of running them
type recordingQueue struct {
	jobs []worker.Job
	err  error
}

func (q *recordingQueue) Submit(job worker.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func perform(t *testing.T, router http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
