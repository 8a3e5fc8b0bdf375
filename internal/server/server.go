package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valnet/valdesk-central/internal/citizen"
	citizendomain "github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/internal/config"
	"github.com/valnet/valdesk-central/internal/debt"
	"github.com/valnet/valdesk-central/internal/invoice"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/internal/observability"
	obsmiddleware "github.com/valnet/valdesk-central/internal/observability/logger"
	obsmetrics "github.com/valnet/valdesk-central/internal/observability/metrics"
	obstracing "github.com/valnet/valdesk-central/internal/observability/tracing"
	"github.com/valnet/valdesk-central/internal/payment"
	paymentdomain "github.com/valnet/valdesk-central/internal/payment/domain"
	"github.com/valnet/valdesk-central/internal/serviceassignment"
	serviceassignmentdomain "github.com/valnet/valdesk-central/internal/serviceassignment/domain"
	"github.com/valnet/valdesk-central/internal/ticket"
	ticketdomain "github.com/valnet/valdesk-central/internal/ticket/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	citizen.Module,
	serviceassignment.Module,
	invoice.Module,
	payment.Module,
	debt.Module,
	ticket.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
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

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
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
	engine        *gin.Engine
	cfg           config.Config
	citizenSvc    citizendomain.Service
	assignmentSvc serviceassignmentdomain.Service
	invoiceSvc    invoicedomain.Service
	paymentSvc    paymentdomain.Service
	debtSvc       debt.Service
	ticketSvc     ticketdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	CitizenSvc    citizendomain.Service
	AssignmentSvc serviceassignmentdomain.Service
	InvoiceSvc    invoicedomain.Service
	PaymentSvc    paymentdomain.Service
	DebtSvc       debt.Service
	TicketSvc     ticketdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		citizenSvc:    p.CitizenSvc,
		assignmentSvc: p.AssignmentSvc,
		invoiceSvc:    p.InvoiceSvc,
		paymentSvc:    p.PaymentSvc,
		debtSvc:       p.DebtSvc,
		ticketSvc:     p.TicketSvc,
	}
	s.registerAPIRoutes()
	return s
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Citizens --------
	api.POST("/citizens", s.CreateCitizen)
	api.GET("/citizens", s.ListCitizens)
	api.GET("/citizens/:id", s.GetCitizenByID)
	api.POST("/citizens/:id/recalculate-debt", s.RecalculateCitizenDebt)
	api.GET("/citizens/:id/debt", s.GetCitizenDebt)
	api.GET("/citizens/:id/service-assignments", s.ListCitizenAssignments)

	// -------- Service assignments --------
	api.POST("/service-assignments", s.CreateServiceAssignment)
	api.GET("/service-assignments/:id", s.GetServiceAssignmentByID)
	api.PATCH("/service-assignments/:id/status", s.UpdateServiceAssignmentStatus)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/payments", s.ListInvoicePayments)

	// -------- Payments --------
	api.POST("/payments", s.ApplyPayment)

	// -------- Tickets --------
	api.POST("/tickets", s.CreateTicket)

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
}
