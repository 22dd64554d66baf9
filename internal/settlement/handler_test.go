package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultpay/internal/auth"
	"consultpay/internal/booking"
	"consultpay/internal/payment"
)

const testSecret = "handler-test-secret"

type fakeAnalytics struct {
	from, to time.Time
	err      error
}

func (a *fakeAnalytics) StatsByDay(ctx context.Context, from, to time.Time) ([]booking.StatsByDay, error) {
	a.from, a.to = from, to
	if a.err != nil {
		return nil, a.err
	}
	return []booking.StatsByDay{{Bucket: from.Format(booking.DateLayout), BookingsCreated: 2, BookingsPaid: 1, GrossPaidAmount: 15000}}, nil
}

func (a *fakeAnalytics) StatsByConsultant(ctx context.Context, from, to time.Time) ([]booking.StatsByConsultant, error) {
	return []booking.StatsByConsultant{{ConsultantID: testConsultant, ConsultantName: "Dana Consultant", BookingsCreated: 2}}, nil
}

func setupRouter(h *harness, analytics Analytics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(h.engine, analytics)

	r.POST("/bookings", handler.CreateBooking)
	r.POST("/bookings/:bookingID/checkout", handler.StartCheckout)
	r.GET("/consultants/:consultantID/availability", handler.Availability)

	authed := r.Group("/", auth.AuthMiddleware(testSecret))
	authed.POST("/bookings/:bookingID/cancel", auth.RequireRole(auth.RoleClient, auth.RoleAdmin), handler.CancelBooking)

	consultant := authed.Group("/consultant", auth.RequireRole(auth.RoleConsultant))
	consultant.GET("/bookings", handler.ListConsultantBookings)
	consultant.POST("/bookings/:bookingID/validate", handler.ValidateBooking)
	consultant.POST("/bookings/:bookingID/complete", handler.CompleteBooking)
	consultant.GET("/wallet", handler.GetWallet)
	consultant.GET("/wallet/transactions", handler.ListTransactions)
	consultant.POST("/wallet/withdrawals", handler.RequestWithdrawal)

	admin := authed.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/wallets/:consultantID/adjustments", handler.AdjustBalance)
	admin.GET("/wallets/:consultantID/audit", handler.AuditWallet)
	admin.GET("/analytics/bookings", handler.BookingAnalytics)

	return r
}

func token(t *testing.T, subjectID int64, email, role string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(subjectID, email, role, testSecret)
	require.NoError(t, err)
	return tok
}

func doJSON(r http.Handler, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBody(slot, amount string) gin.H {
	return gin.H{
		"client_name":   "Ana Client",
		"client_email":  "Ana@Example.com",
		"consultant_id": testConsultant,
		"booking_date":  "2026-11-02",
		"booking_time":  slot,
		"timezone":      "Europe/Berlin",
		"amount":        amount,
		"currency":      "eur",
	}
}

// paidBooking creates a booking and settles its payment through the engine.
func paidBooking(t *testing.T, h *harness, slot string, amount int64) *booking.Booking {
	t.Helper()
	b, err := h.engine.CreateBooking(context.Background(), bookingInput(slot, amount))
	require.NoError(t, err)
	b, err = h.engine.ConfirmBookingPayment(context.Background(), b.ID, "ch_"+slot)
	require.NoError(t, err)
	return b
}

func TestHandler_CreateBooking(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})

	w := doJSON(r, http.MethodPost, "/bookings", "", createBody("10:00", "1.50"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1.50", resp["amount"])
	assert.Equal(t, float64(150), resp["amount_minor"])
	assert.Equal(t, "2026-11-02", resp["booking_date"])
	assert.Equal(t, "ana@example.com", resp["client_email"])
	assert.Equal(t, "PENDING", resp["status"])

	w = doJSON(r, http.MethodPost, "/bookings", "", createBody("10:00", "1.50"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/bookings", "", createBody("11:00", "1.505"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := createBody("11:00", "1.00")
	delete(body, "client_email")
	w = doJSON(r, http.MethodPost, "/bookings", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ClientEmail")

	body = createBody("11:00", "1.00")
	body["consultant_id"] = inactiveConsultant
	w = doJSON(r, http.MethodPost, "/bookings", "", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_StartCheckout(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})

	b, err := h.engine.CreateBooking(context.Background(), bookingInput("10:00", 100))
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/bookings/%d/checkout", b.ID), "", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cs_1", resp.SessionID)
	assert.Equal(t, "https://pay.test/cs_1", resp.URL)

	h.gateway.checkoutErr = &payment.GatewayError{StatusCode: 503, Message: "unavailable"}
	other, err := h.engine.CreateBooking(context.Background(), bookingInput("11:00", 100))
	require.NoError(t, err)
	w = doJSON(r, http.MethodPost, fmt.Sprintf("/bookings/%d/checkout", other.ID), "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(r, http.MethodPost, "/bookings/abc/checkout", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Availability(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})

	_, err := h.engine.CreateBooking(context.Background(), bookingInput("10:00", 100))
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/consultants/%d/availability?date=2026-11-02", testConsultant), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"10:00"`)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/consultants/%d/availability?date=02-11-2026", testConsultant), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/consultants/%d/availability?date=2026-11-02", inactiveConsultant), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CancelBookingOwnership(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})

	b, err := h.engine.CreateBooking(context.Background(), bookingInput("10:00", 100))
	require.NoError(t, err)
	path := fmt.Sprintf("/bookings/%d/cancel", b.ID)

	w := doJSON(r, http.MethodPost, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, path, token(t, 0, "someone@example.com", auth.RoleClient), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, path, token(t, testConsultant, "dana@example.com", auth.RoleConsultant), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, path, token(t, 0, "ana@example.com", auth.RoleClient), gin.H{"reason": "sick"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"CANCELLED"`)

	w = doJSON(r, http.MethodPost, path, token(t, 1, "ops@example.com", auth.RoleAdmin), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_AdminCancelRefundsPaidBooking(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})
	b := paidBooking(t, h, "10:00", 100)

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/bookings/%d/cancel", b.ID), token(t, 1, "ops@example.com", auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"payment_status":"REFUNDED"`)
	h.assertLedger(t, testConsultant)
}

func TestHandler_ValidateBooking(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})
	b := paidBooking(t, h, "10:00", 100)
	path := fmt.Sprintf("/consultant/bookings/%d/validate", b.ID)

	owner := token(t, testConsultant, "dana@example.com", auth.RoleConsultant)
	stranger := token(t, otherConsultant, "nopayout@example.com", auth.RoleConsultant)

	w := doJSON(r, http.MethodPost, path, stranger, gin.H{"action": "confirm"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, path, owner, gin.H{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, path, owner, gin.H{"action": "reject", "note": "double booked"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"REJECTED"`)

	w = doJSON(r, http.MethodPost, path, owner, gin.H{"action": "confirm"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/consultant/bookings/%d/complete", b.ID), owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_ListConsultantBookings(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})
	paidBooking(t, h, "10:00", 100)
	_, err := h.engine.CreateBooking(context.Background(), bookingInput("11:00", 100))
	require.NoError(t, err)

	tok := token(t, testConsultant, "dana@example.com", auth.RoleConsultant)

	w := doJSON(r, http.MethodGet, "/consultant/bookings", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	w = doJSON(r, http.MethodGet, "/consultant/bookings?status=awaiting_validation", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var filtered []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "AWAITING_VALIDATION", filtered[0]["status"])
}

func TestHandler_WalletAndWithdrawals(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})
	tok := token(t, testConsultant, "dana@example.com", auth.RoleConsultant)

	w := doJSON(r, http.MethodGet, "/consultant/wallet", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	paidBooking(t, h, "10:00", 15000)

	w = doJSON(r, http.MethodGet, "/consultant/wallet", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))
	assert.Equal(t, "150.00", wallet["balance"])
	assert.Equal(t, "0.00", wallet["pending_balance"])
	assert.Equal(t, "150.00", wallet["total_earnings"])

	w = doJSON(r, http.MethodPost, "/consultant/wallet/withdrawals", tok, gin.H{"amount": "150.01"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPost, "/consultant/wallet/withdrawals", tok, gin.H{"amount": "50.00", "currency": "USD"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/consultant/wallet/withdrawals", tok, gin.H{"amount": "50.00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"amount":"-50.00"`)
	assert.Contains(t, w.Body.String(), `"balance_after":"100.00"`)

	w = doJSON(r, http.MethodGet, "/consultant/wallet/transactions?limit=1", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txs []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "DEBIT", txs[0]["type"])

	client := token(t, 0, "ana@example.com", auth.RoleClient)
	w = doJSON(r, http.MethodGet, "/consultant/wallet", client, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_AdminAdjustAndAudit(t *testing.T) {
	h := newHarness(t)
	r := setupRouter(h, &fakeAnalytics{})
	admin := token(t, 1, "ops@example.com", auth.RoleAdmin)
	paidBooking(t, h, "10:00", 1000)

	path := fmt.Sprintf("/admin/wallets/%d/adjustments", testConsultant)
	w := doJSON(r, http.MethodPost, path, admin, gin.H{"amount": "-2.50", "reason": "chargeback fee"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"type":"DEBIT"`)
	assert.Contains(t, w.Body.String(), `"amount":"-2.50"`)

	w = doJSON(r, http.MethodPost, path, admin, gin.H{"amount": "-100.00", "reason": "too much"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPost, path, admin, gin.H{"amount": "5.00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/admin/wallets/%d/audit", testConsultant), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"consistent":true`)

	h.store.corruptBalance(testConsultant, 1)
	w = doJSON(r, http.MethodPost, path, admin, gin.H{"amount": "1.00", "reason": "bonus"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Ledger inconsistency")
}

func TestHandler_BookingAnalytics(t *testing.T) {
	h := newHarness(t)
	analytics := &fakeAnalytics{}
	r := setupRouter(h, analytics)
	admin := token(t, 1, "ops@example.com", auth.RoleAdmin)

	w := doJSON(r, http.MethodGet, "/admin/analytics/bookings?start_date=2026-10-01&end_date=2026-10-07", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-10-01", resp.From)
	assert.Equal(t, "2026-10-07", resp.To)
	require.Len(t, resp.ByDay, 1)
	assert.Equal(t, int64(15000), resp.ByDay[0].GrossPaidAmount)
	require.Len(t, resp.ByConsultant, 1)
	assert.Equal(t, time.Date(2026, 10, 7, 23, 59, 59, 999999999, time.UTC), analytics.to)

	w = doJSON(r, http.MethodGet, "/admin/analytics/bookings?start_date=2026-10-07&end_date=2026-10-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/analytics/bookings?start_date=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	analytics.err = errors.New("db gone")
	w = doJSON(r, http.MethodGet, "/admin/analytics/bookings", admin, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/analytics/bookings", token(t, testConsultant, "dana@example.com", auth.RoleConsultant), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"booking not found", ErrBookingNotFound, http.StatusNotFound},
		{"wallet not found", fmt.Errorf("wrapped: %w", ErrWalletNotFound), http.StatusNotFound},
		{"slot unavailable", ErrSlotUnavailable, http.StatusConflict},
		{"already terminal", ErrAlreadyTerminal, http.StatusConflict},
		{"pricing mismatch", ErrPricingMismatch, http.StatusBadRequest},
		{"invalid state", &InvalidStateError{BookingID: 1, Op: "cancel"}, http.StatusConflict},
		{"insufficient balance", &InsufficientBalanceError{Available: 1, Requested: 2}, http.StatusUnprocessableEntity},
		{"ledger", &LedgerConsistencyError{Reason: "drift"}, http.StatusInternalServerError},
		{"gateway", fmt.Errorf("create: %w", &payment.GatewayError{StatusCode: 500}), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
