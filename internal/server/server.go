package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/resellops/backoffice/internal/account"
	accountdomain "github.com/resellops/backoffice/internal/account/domain"
	"github.com/resellops/backoffice/internal/auth"
	authdomain "github.com/resellops/backoffice/internal/auth/domain"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/config"
	"github.com/resellops/backoffice/internal/goods"
	goodsdomain "github.com/resellops/backoffice/internal/goods/domain"
	"github.com/resellops/backoffice/internal/migration"
	"github.com/resellops/backoffice/internal/observability"
	obslogger "github.com/resellops/backoffice/internal/observability/logger"
	obsmetrics "github.com/resellops/backoffice/internal/observability/metrics"
	obstracing "github.com/resellops/backoffice/internal/observability/tracing"
	"github.com/resellops/backoffice/internal/order"
	orderdomain "github.com/resellops/backoffice/internal/order/domain"
	"github.com/resellops/backoffice/internal/payment"
	paymentdomain "github.com/resellops/backoffice/internal/payment/domain"
	"github.com/resellops/backoffice/internal/ratelimit"
	"github.com/resellops/backoffice/internal/receipt"
	receiptdomain "github.com/resellops/backoffice/internal/receipt/domain"
	"github.com/resellops/backoffice/internal/user"
	userdomain "github.com/resellops/backoffice/internal/user/domain"
	"github.com/resellops/backoffice/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	db.Module,
	migration.Module,
	authorization.Module,
	ratelimit.Module,
	auth.Module,
	account.Module,
	goods.Module,
	order.Module,
	receipt.Module,
	payment.Module,
	user.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware())
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(metrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(metrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	limiter    *ratelimit.LoginLimiter
	authSvc    authdomain.Service
	authzSvc   authorization.Service
	accountSvc accountdomain.Service
	goodsSvc   goodsdomain.Service
	orderSvc   orderdomain.Service
	receiptSvc receiptdomain.Service
	paymentSvc paymentdomain.Service
	userSvc    userdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	Limiter    *ratelimit.LoginLimiter `optional:"true"`
	AuthSvc    authdomain.Service
	AuthzSvc   authorization.Service
	AccountSvc accountdomain.Service
	GoodsSvc   goodsdomain.Service
	OrderSvc   orderdomain.Service
	ReceiptSvc receiptdomain.Service
	PaymentSvc paymentdomain.Service
	UserSvc    userdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		limiter:    p.Limiter,
		authSvc:    p.AuthSvc,
		authzSvc:   p.AuthzSvc,
		accountSvc: p.AccountSvc,
		goodsSvc:   p.GoodsSvc,
		orderSvc:   p.OrderSvc,
		receiptSvc: p.ReceiptSvc,
		paymentSvc: p.PaymentSvc,
		userSvc:    p.UserSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAdminRoutes()
	svc.registerSupplierRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	grp := s.engine.Group("/auth")

	grp.POST("/login", s.ThrottleLogin(), s.Login)
	grp.POST("/logout", s.AuthRequired(), s.Logout)
	grp.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAdminRoutes() {
	staff := s.engine.Group("/api", s.AuthRequired(), s.RequireRole(authorization.RoleSuper, authorization.RoleAdmin))

	staff.GET("/users", s.ListUsers)
	staff.GET("/users/:id", s.GetUser)
	staff.POST("/users", s.RequireRole(authorization.RoleSuper), s.CreateUser)
	staff.PUT("/users/:id", s.RequireRole(authorization.RoleSuper), s.UpdateUser)
	staff.GET("/role/list", s.ListRoles)

	staff.GET("/v3/system/menus/simple", s.SimpleMenus)

	staff.GET("/temu/goods", s.ListGoods)
	staff.GET("/temu/goods/:id", s.GetGoods)
	staff.POST("/temu/goods", s.UpsertGoods)

	staff.GET("/orders", s.ListOrders)
	staff.GET("/orders/:id", s.GetOrder)
	staff.POST("/orders", s.UpsertOrder)

	staff.GET("/accounts", s.ListAccounts)
	staff.GET("/accounts/:id", s.GetAccount)
	staff.POST("/accounts", s.CreateAccount)
	staff.PUT("/accounts/:id", s.UpdateAccount)
	staff.DELETE("/accounts/:id", s.DisableAccount)

	staff.GET("/receipts", s.ListReceipts)
	staff.GET("/receipts/:id", s.GetReceipt)
	staff.POST("/receipts/:id/recompute", s.RecomputeReceipt)
	staff.DELETE("/receipts/:id", s.DeleteReceipt)
	staff.GET("/receipts/:id/payment_logs", s.ReceiptPaymentLogs)

	staff.GET("/payments", s.ListPayments)
	staff.GET("/payments/:id", s.GetPayment)
	staff.GET("/payments/:id/logs", s.PaymentLogs)
	staff.POST("/payments/:id/approve", s.ApprovePayment)
	staff.POST("/payments/:id/reject", s.RejectPayment)
}

func (s *Server) registerSupplierRoutes() {
	supplier := s.engine.Group("/api/customer/receipt")

	supplier.POST("/get_token", s.ThrottleLogin(), s.SupplierToken)

	authed := supplier.Group("", s.AuthRequired(), s.RequireRole(authorization.RoleSupplier))
	authed.GET("/select", s.SupplierReceipts)
	authed.GET("/detail", s.SupplierReceiptDetail)
	authed.POST("/ticket/upload", s.UploadTicket)
	authed.POST("/payment", s.SubmitPayment)
	authed.GET("/payments", s.SupplierPayments)
	authed.GET("/payments/:id/logs", s.PaymentLogs)
}
