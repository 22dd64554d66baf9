package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"consultpay/internal/auth"
	"consultpay/internal/config"
	"consultpay/internal/settlement"
)

type Deps struct {
	Engine    *settlement.Engine
	Analytics settlement.Analytics
	Events    settlement.EventLog
	Checks    map[string]Check
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	handler := settlement.NewHandler(deps.Engine, deps.Analytics)
	webhooks := settlement.NewWebhookHandler(deps.Engine, deps.Events, cfg.GatewayWebhookSecret)

	public := router.Group("/")
	public.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.POST("/bookings", handler.CreateBooking)
		public.POST("/bookings/:bookingID/checkout", handler.StartCheckout)
		public.GET("/consultants/:consultantID/availability", handler.Availability)
		public.POST("/webhooks/payment", webhooks.Handle)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)

	protected := router.Group("/")
	protected.Use(authMiddleware, auth.RequireRole(auth.RoleClient, auth.RoleAdmin))
	{
		protected.POST("/bookings/:bookingID/cancel", handler.CancelBooking)
	}

	consultant := router.Group("/consultant")
	consultant.Use(authMiddleware, auth.RequireRole(auth.RoleConsultant))
	{
		consultant.GET("/bookings", handler.ListConsultantBookings)
		consultant.POST("/bookings/:bookingID/validate", handler.ValidateBooking)
		consultant.POST("/bookings/:bookingID/complete", handler.CompleteBooking)
		consultant.GET("/wallet", handler.GetWallet)
		consultant.GET("/wallet/transactions", handler.ListTransactions)
		consultant.POST("/wallet/withdrawals", handler.RequestWithdrawal)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/bookings/:bookingID/cancel", handler.CancelBooking)
		admin.POST("/wallets/:consultantID/adjustments", handler.AdjustBalance)
		admin.GET("/wallets/:consultantID/audit", handler.AuditWallet)
		admin.GET("/analytics/bookings", handler.BookingAnalytics)
	}

	router.GET("/health", Health)
	router.GET("/ready", Ready(deps.Checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
