package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/application"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

type reconcilerStub struct {
	resp *application.ReconcileResponse
	err  error
}

func (s *reconcilerStub) Reconcile(ctx context.Context, req *application.NotificationRequest) (*application.ReconcileResponse, error) {
	return s.resp, s.err
}

func postNotification(t *testing.T, handler *PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/payment/notification", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleNotificationSuccess(t *testing.T) {
	handler := NewPaymentHandler(&reconcilerStub{resp: &application.ReconcileResponse{
		OrderID: "ORDER-1",
		Status:  domain.StatusPaid,
		Applied: true,
		Message: "order finalized",
	}})

	rec := postNotification(t, handler, `{"order_id":"ORDER-1","transaction_status":"settlement"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp application.ReconcileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Applied)
	require.Equal(t, domain.StatusPaid, resp.Status)
}

func TestHandleNotificationErrorMapping(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"malformed payload", domain.ErrMalformedNotification, http.StatusBadRequest},
		{"failed verification", domain.ErrUnauthenticated, http.StatusUnauthorized},
		{"unknown order", domain.ErrOrderNotFound, http.StatusNotFound},
		{"storage outage is retryable", domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"unexpected failure", context.Canceled, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewPaymentHandler(&reconcilerStub{err: tc.err})
			rec := postNotification(t, handler, `{"order_id":"ORDER-1","transaction_status":"settlement"}`)
			require.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestHandleNotificationRejectsBadBody(t *testing.T) {
	handler := NewPaymentHandler(&reconcilerStub{})
	rec := postNotification(t, handler, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNotificationRejectsNonPost(t *testing.T) {
	handler := NewPaymentHandler(&reconcilerStub{})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/payment/notification", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	handler := NewPaymentHandler(&reconcilerStub{})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
