package qbo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsRepo struct {
	settings *entity.QuickBooksSettings
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (*entity.QuickBooksSettings, error) {
	return f.settings, nil
}

func (f *fakeSettingsRepo) Save(ctx context.Context, s *entity.QuickBooksSettings) error {
	f.settings = s
	return nil
}

func connected() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: &entity.QuickBooksSettings{
		RealmID:     "9130",
		AccessToken: "access-123",
	}}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, settings *fakeSettingsRepo) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:           srv.URL,
		MinorVersion:      "65",
		Timeout:           2 * time.Second,
		RequestsPerMinute: 60000,
		Breaker: BreakerConfig{
			Name:             "test",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 3,
		},
	}, settings, logger.Discard())
}

func TestGetInvoice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v3/company/4620/invoice/42", r.URL.Path)
		assert.Equal(t, "65", r.URL.Query().Get("minorversion"))
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"Invoice":{"Id":"42","DocNumber":"SO-1","TotalAmt":100.00,
			"CustomerRef":{"value":"7"},"TxnTaxDetail":{"TotalTax":6},
			"Line":[{"Amount":94,"DetailType":"SalesItemLineDetail",
			"SalesItemLineDetail":{"ItemRef":{"value":"11"},"Qty":2,"UnitPrice":47}}]}}`)
	}, connected())

	inv, err := client.GetInvoice(context.Background(), "4620", "42")
	require.NoError(t, err)

	assert.Equal(t, "42", inv.ID)
	assert.Equal(t, "7", inv.CustomerRef.Value)
	assert.True(t, inv.TotalAmt.Equal(decimal.NewFromInt(100)))
	assert.True(t, inv.TotalTax().Equal(decimal.NewFromInt(6)))
	require.Len(t, inv.Line, 1)
	assert.Equal(t, "11", inv.Line[0].SalesItemLineDetail.ItemRef.Value)
}

func TestRealmFallsBackToSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/company/9130/item/11", r.URL.Path)
		_, _ = io.WriteString(w, `{"Item":{"Id":"11","SyncToken":"3"}}`)
	}, connected())

	item, err := client.GetItem(context.Background(), "11")
	require.NoError(t, err)
	assert.Equal(t, "3", item.SyncToken)
}

func TestUpdateItemSendsSparseUpdate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "update", r.URL.Query().Get("operation"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["sparse"])
		assert.Equal(t, 3.1, body["PurchaseCost"])
		assert.NotContains(t, body, "UnitPrice")

		_, _ = io.WriteString(w, `{"Item":{"Id":"11","SyncToken":"4"}}`)
	}, connected())

	cost := decimal.RequireFromString("3.10")
	item, err := client.UpdateItem(context.Background(), &remote.Item{ID: "11", SyncToken: "3", Sparse: true, PurchaseCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, "4", item.SyncToken)
}

func TestNotConnected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, &fakeSettingsRepo{})

	_, err := client.GetInvoice(context.Background(), "4620", "42")
	assert.ErrorIs(t, err, apperror.ErrNotConnected)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apperror.Kind
		msg    string
	}{
		{
			name:   "server error is transient",
			status: http.StatusServiceUnavailable,
			body:   `{}`,
			kind:   apperror.KindTransientNetwork,
		},
		{
			name:   "fault is validation",
			status: http.StatusBadRequest,
			body:   `{"Fault":{"type":"ValidationFault","Error":[{"Message":"Invalid Reference Id","Detail":"Item 99 is inactive","code":"2500"}]}}`,
			kind:   apperror.KindValidation,
			msg:    "Invalid Reference Id: Item 99 is inactive",
		},
		{
			name:   "object not found fault",
			status: http.StatusBadRequest,
			body:   `{"Fault":{"type":"ValidationFault","Error":[{"Message":"Object Not Found","code":"610"}]}}`,
			kind:   apperror.KindNotFound,
		},
		{
			name:   "throttled is transient",
			status: http.StatusTooManyRequests,
			body:   `{"Fault":{"type":"ThrottleFault","Error":[{"Message":"message=ThrottleExceeded","code":"3001"}]}}`,
			kind:   apperror.KindTransientNetwork,
		},
		{
			name:   "expired token",
			status: http.StatusUnauthorized,
			body:   `{"Fault":{"type":"AUTHENTICATION","Error":[{"Message":"AuthenticationFailed","code":"3200"}]}}`,
			kind:   apperror.KindAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, connected())

			_, err := client.GetInvoice(context.Background(), "", "42")
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, tt.kind), "got %v", err)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, apperror.GetAppError(err).Message)
			}
		})
	}
}

func TestUnreadableResponseIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>maintenance</html>`)
	}, connected())

	_, err := client.GetPayment(context.Background(), "", "5")
	assert.True(t, apperror.IsKind(err, apperror.KindTransientNetwork))
}

func TestBreakerOpensOnServerErrorsOnly(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/v3/company/9130/invoice/bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}, connected())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = client.GetInvoice(ctx, "", "bad")
	}
	assert.Equal(t, gobreaker.StateClosed, client.breaker.state(), "4xx answers must not trip the breaker")

	for i := 0; i < 3; i++ {
		_, _ = client.GetInvoice(ctx, "", "42")
	}
	assert.Equal(t, gobreaker.StateOpen, client.breaker.state())

	before := atomic.LoadInt32(&calls)
	_, err := client.GetInvoice(ctx, "", "42")
	assert.True(t, apperror.IsKind(err, apperror.KindTransientNetwork))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open breaker must not reach the server")
}
