package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/faktur/internal/config"
	"github.com/smallbiznis/faktur/internal/invoice"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/internal/observability"
	obsmiddleware "github.com/smallbiznis/faktur/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/faktur/internal/observability/metrics"
	obstracing "github.com/smallbiznis/faktur/internal/observability/tracing"
	"github.com/smallbiznis/faktur/internal/payment"
	paymentdomain "github.com/smallbiznis/faktur/internal/payment/domain"
	"github.com/smallbiznis/faktur/internal/providerconfig"
	providerconfigdomain "github.com/smallbiznis/faktur/internal/providerconfig/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	invoice.Module,
	payment.Module,
	providerconfig.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
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
	engine            *gin.Engine
	cfg               config.Config
	db                *gorm.DB
	invoiceSvc        invoicedomain.Service
	paymentSvc        paymentdomain.Service
	providerConfigSvc providerconfigdomain.Service
	obsMetrics        *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	DB                *gorm.DB
	InvoiceSvc        invoicedomain.Service
	PaymentSvc        paymentdomain.Service
	ProviderConfigSvc providerconfigdomain.Service
	ObsMetrics        *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		db:                p.DB,
		invoiceSvc:        p.InvoiceSvc,
		paymentSvc:        p.PaymentSvc,
		providerConfigSvc: p.ProviderConfigSvc,
		obsMetrics:        p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Invoices --------
	v1.GET("/invoices", s.ListInvoices)
	v1.POST("/invoices", s.CreateInvoice)
	v1.GET("/invoices/:id", s.GetInvoiceByID)
	v1.PUT("/invoices/:id", s.UpdateInvoice)
	v1.DELETE("/invoices/:id", s.DeleteInvoice)
	v1.POST("/invoices/:id/checkout/:provider", s.CreateInvoiceCheckout)

	// -------- Payments --------
	v1.GET("/payments/:provider/:paymentId", s.GetPaymentStatus)
	v1.GET("/payments/:provider/:paymentId/live", s.GetLivePaymentStatus)
	v1.POST("/payments/:provider/webhook", s.HandlePaymentWebhook)

	// -------- Payment Providers --------
	v1.GET("/payment-providers", s.ListPaymentProviderConfigs)
	v1.POST("/payment-providers", s.UpsertPaymentProviderConfig)
	v1.PATCH("/payment-providers/:provider", s.UpdatePaymentProviderStatus)
}
