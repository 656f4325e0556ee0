package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bisttrading/algowire/pkg/order"
	"github.com/bisttrading/algowire/pkg/util"
)

func newTestServer() *Server {
	log := zap.NewNop()
	hub := NewHub(log)
	validator := order.NewValidator(decimal.RequireFromString("0.01"), util.RealClock{})
	return NewServer(hub, validator, 16, []string{"*"}, log)
}

func postOrder(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitOrder_Accepted(t *testing.T) {
	s := newTestServer()

	rec := postOrder(t, s, `{
		"user_id": "user-42",
		"order_id": "cli-7",
		"symbol": "THYAO",
		"side": "BUY",
		"order_type": "LIMIT",
		"quantity": 100,
		"price": 245.5,
		"time_in_force": "DAY"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"accepted","order_id":"cli-7"}`, rec.Body.String())
}

func TestSubmitOrder_ImmediateAnnotation(t *testing.T) {
	s := newTestServer()

	rec := postOrder(t, s, `{
		"user_id": "user-42",
		"symbol": "THYAO",
		"side": "SELL",
		"order_type": "LIMIT",
		"quantity": 50,
		"price": 245.5,
		"time_in_force": "IOC"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"immediate":true`)
}

func TestSubmitOrder_RejectedWithAllViolations(t *testing.T) {
	s := newTestServer()

	// LIMIT without price and zero quantity: both violations reported
	rec := postOrder(t, s, `{
		"user_id": "user-42",
		"symbol": "THYAO",
		"side": "BUY",
		"order_type": "LIMIT",
		"quantity": 0,
		"time_in_force": "DAY"
	}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"status":"rejected"`)
	assert.Contains(t, body, order.RuleMinQuantity)
	assert.Contains(t, body, order.RuleMissingPrice)
}

func TestSubmitOrder_StructuralErrorIsBadRequest(t *testing.T) {
	s := newTestServer()

	rec := postOrder(t, s, `{
		"user_id": "user-42",
		"symbol": "THYAO",
		"side": "HOLD",
		"order_type": "LIMIT",
		"quantity": 10,
		"price": 1.5
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOrder_MalformedJSON(t *testing.T) {
	s := newTestServer()

	rec := postOrder(t, s, `{"user_id": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
