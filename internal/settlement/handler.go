package settlement

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"consultpay/internal/api"
	"consultpay/internal/auth"
	"consultpay/internal/booking"
	"consultpay/internal/logger"
	"consultpay/internal/money"
	"consultpay/internal/payment"
)

// Analytics reports booking aggregates for the admin dashboard.
type Analytics interface {
	StatsByDay(ctx context.Context, from, to time.Time) ([]booking.StatsByDay, error)
	StatsByConsultant(ctx context.Context, from, to time.Time) ([]booking.StatsByConsultant, error)
}

type Handler struct {
	engine    *Engine
	analytics Analytics
}

func NewHandler(engine *Engine, analytics Analytics) *Handler {
	return &Handler{engine: engine, analytics: analytics}
}

// @Summary      Create a booking
// @Description  Reserves a consultant's slot and records the amount as pending in the consultant's wallet
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body settlement.CreateBookingRequest true "Booking payload"
// @Success      201 {object} settlement.BookingResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	in := CreateBookingInput{
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		ClientPhone:  req.ClientPhone,
		ConsultantID: req.ConsultantID,
		PricingID:    req.PricingID,
		Date:         req.BookingDate,
		Time:         req.BookingTime,
		Timezone:     req.Timezone,
		Currency:     strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if req.Amount != "" {
		currency := in.Currency
		if currency == "" {
			currency = h.engine.opts.DefaultCurrency
		}
		amount, err := money.ToMinor(req.Amount, currency)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		in.Amount = amount
	}

	b, err := h.engine.CreateBooking(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bookingView(b))
}

// @Summary      Start checkout
// @Description  Opens a hosted payment page for an unpaid booking
// @Tags         bookings
// @Produce      json
// @Param        bookingID path int true "Booking ID"
// @Success      201 {object} settlement.CheckoutResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/checkout [post]
func (h *Handler) StartCheckout(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return
	}

	session, err := h.engine.StartCheckout(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CheckoutResponse{BookingID: bookingID, SessionID: session.ID, URL: session.URL})
}

// @Summary      Consultant availability for a day
// @Tags         bookings
// @Produce      json
// @Param        consultantID path int true "Consultant ID"
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Success      200 {object} availability.DayAvailability
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /consultants/{consultantID}/availability [get]
func (h *Handler) Availability(c *gin.Context) {
	consultantID, ok := pathID(c, "consultantID")
	if !ok {
		return
	}

	date := c.Query("date")
	if _, err := time.Parse(booking.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	day, err := h.engine.Availability(c.Request.Context(), consultantID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}

// @Summary      Cancel a booking
// @Description  Clients may cancel their own bookings; admins may cancel any booking
// @Tags         bookings,admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Param        request body settlement.CancelBookingRequest false "Cancellation reason"
// @Success      200 {object} settlement.BookingResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
// @Router       /admin/bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return
	}

	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			api.RespondBindError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if auth.GetRole(c) != auth.RoleAdmin {
		b, err := h.engine.GetBooking(ctx, bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !strings.EqualFold(b.ClientEmail, auth.GetEmail(c)) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
			return
		}
	}

	b, err := h.engine.CancelBooking(ctx, bookingID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingView(b))
}

// @Summary      List my bookings
// @Tags         consultant
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {array} settlement.BookingResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /consultant/bookings [get]
func (h *Handler) ListConsultantBookings(c *gin.Context) {
	consultantID, ok := consultantFromToken(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	f := booking.ListFilter{ConsultantID: consultantID, Limit: limit, Offset: offset}
	if s := c.Query("status"); s != "" {
		status := booking.Status(strings.ToUpper(s))
		f.Status = &status
	}

	bookings, err := h.engine.ListBookings(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingViews(bookings))
}

// @Summary      Confirm or reject a paid booking
// @Description  Rejecting refunds the client out of the consultant's balance
// @Tags         consultant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Param        request body settlement.ValidateBookingRequest true "Decision"
// @Success      200 {object} settlement.BookingResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /consultant/bookings/{bookingID}/validate [post]
func (h *Handler) ValidateBooking(c *gin.Context) {
	bookingID, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	var req ValidateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	b, err := h.engine.ValidateBooking(c.Request.Context(), bookingID, req.Action, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingView(b))
}

// @Summary      Mark a confirmed booking as completed
// @Tags         consultant
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} settlement.BookingResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /consultant/bookings/{bookingID}/complete [post]
func (h *Handler) CompleteBooking(c *gin.Context) {
	bookingID, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	b, err := h.engine.CompleteBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingView(b))
}

// @Summary      Get my wallet
// @Tags         consultant
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} settlement.WalletResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /consultant/wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	consultantID, ok := consultantFromToken(c)
	if !ok {
		return
	}

	w, err := h.engine.GetWallet(c.Request.Context(), consultantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, walletView(w))
}

// @Summary      List my wallet transactions
// @Tags         consultant
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {array} settlement.TransactionResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /consultant/wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	consultantID, ok := consultantFromToken(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	txs, err := h.engine.ListTransactions(c.Request.Context(), consultantID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactionViews(txs))
}

// @Summary      Request a withdrawal
// @Description  Debits the balance and asks the gateway for a payout; failed payouts are kept for manual processing
// @Tags         consultant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body settlement.WithdrawalBody true "Withdrawal"
// @Success      201 {object} settlement.TransactionResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /consultant/wallet/withdrawals [post]
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	consultantID, ok := consultantFromToken(c)
	if !ok {
		return
	}

	var req WithdrawalBody
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	w, err := h.engine.GetWallet(ctx, consultantID)
	if err != nil {
		respondError(c, err)
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency != "" && currency != w.Currency {
		respondError(c, ErrCurrencyMismatch)
		return
	}

	amount, err := money.ToMinor(req.Amount, w.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	tx, err := h.engine.RequestWithdrawal(ctx, WithdrawalRequest{ConsultantID: consultantID, Amount: amount, Currency: w.Currency})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transactionView(tx))
}

// @Summary      Adjust a wallet balance
// @Description  Admin-only correction; negative amounts debit
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        consultantID path int true "Consultant ID"
// @Param        request body settlement.AdjustmentBody true "Adjustment"
// @Success      201 {object} settlement.TransactionResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /admin/wallets/{consultantID}/adjustments [post]
func (h *Handler) AdjustBalance(c *gin.Context) {
	consultantID, ok := pathID(c, "consultantID")
	if !ok {
		return
	}

	var req AdjustmentBody
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	w, err := h.engine.GetWallet(ctx, consultantID)
	if err != nil {
		respondError(c, err)
		return
	}

	raw := strings.TrimSpace(req.Amount)
	negative := strings.HasPrefix(raw, "-")
	amount, err := money.ToMinor(strings.TrimPrefix(raw, "-"), w.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if negative {
		amount = -amount
	}

	tx, err := h.engine.AdjustBalance(ctx, Adjustment{ConsultantID: consultantID, Amount: amount, Reason: req.Reason})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transactionView(tx))
}

// @Summary      Audit a wallet ledger
// @Description  Replays the ledger and reports drift between rows and stored totals
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        consultantID path int true "Consultant ID"
// @Success      200 {object} wallet.Audit
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/wallets/{consultantID}/audit [get]
func (h *Handler) AuditWallet(c *gin.Context) {
	consultantID, ok := pathID(c, "consultantID")
	if !ok {
		return
	}

	audit, err := h.engine.ReconcileWallet(c.Request.Context(), consultantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, audit)
}

type AnalyticsResponse struct {
	From         string                      `json:"from"`
	To           string                      `json:"to"`
	ByDay        []booking.StatsByDay        `json:"by_day"`
	ByConsultant []booking.StatsByConsultant `json:"by_consultant"`
}

// @Summary      Booking analytics
// @Description  Daily and per-consultant booking counts; defaults to the last 30 days
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD), inclusive"
// @Success      200 {object} settlement.AnalyticsResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/analytics/bookings [get]
func (h *Handler) BookingAnalytics(c *gin.Context) {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -30)

	if s := c.Query("start_date"); s != "" {
		t, err := time.Parse(booking.DateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "start_date must be YYYY-MM-DD"})
			return
		}
		from = t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := time.Parse(booking.DateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "end_date must be YYYY-MM-DD"})
			return
		}
		to = t
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "end_date is before start_date"})
		return
	}
	until := to.Add(24*time.Hour - time.Nanosecond)

	ctx := c.Request.Context()
	byDay, err := h.analytics.StatsByDay(ctx, from, until)
	if err != nil {
		respondError(c, err)
		return
	}
	byConsultant, err := h.analytics.StatsByConsultant(ctx, from, until)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		From:         from.Format(booking.DateLayout),
		To:           to.Format(booking.DateLayout),
		ByDay:        byDay,
		ByConsultant: byConsultant,
	})
}

// ownedBooking resolves the path booking and checks it belongs to the
// consultant in the token. Foreign bookings look like missing ones.
func (h *Handler) ownedBooking(c *gin.Context) (int64, bool) {
	consultantID, ok := consultantFromToken(c)
	if !ok {
		return 0, false
	}
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return 0, false
	}

	b, err := h.engine.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	if b.ConsultantID != consultantID {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
		return 0, false
	}
	return bookingID, true
}

func consultantFromToken(c *gin.Context) (int64, bool) {
	id, ok := auth.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Consultant token required"})
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid " + name})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func respondError(c *gin.Context, err error) {
	var (
		invalidState *InvalidStateError
		insufficient *InsufficientBalanceError
		ledger       *LedgerConsistencyError
		gateway      *payment.GatewayError
	)

	switch {
	case errors.Is(err, ErrBookingNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
	case errors.Is(err, ErrWalletNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Wallet not found"})
	case errors.Is(err, ErrConsultantNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrPricingMismatch),
		errors.Is(err, ErrInvalidSlot),
		errors.Is(err, ErrSlotInPast),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrCurrencyMismatch),
		errors.Is(err, money.ErrInvalidCurrency):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.As(err, &invalidState):
		logger.Warn("Rejected booking transition", "booking_id", invalidState.BookingID, "op", invalidState.Op, "status", invalidState.Status)
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: err.Error()})
	case errors.As(err, &ledger):
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Ledger inconsistency detected"})
	case errors.As(err, &gateway):
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Payment gateway unavailable"})
	default:
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
