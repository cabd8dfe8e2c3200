package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/application/queries"
	"github.com/sakettamrakar/eatclub/application/services"
	"github.com/sakettamrakar/eatclub/interfaces/http/rest/handlers"
	"github.com/sakettamrakar/eatclub/interfaces/http/rest/middleware"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
	"github.com/sakettamrakar/eatclub/pkg/observability"
	"github.com/sakettamrakar/eatclub/pkg/ratelimit"
)

// Router creates and configures the HTTP router
type Router struct {
	ingestion    *services.IngestionService
	ledger       ports.LedgerStore
	projection   *queries.InventoryProjection
	limiter      ratelimit.Limiter
	tracer       *observability.Tracer
	errorHandler *pkgerrors.ErrorHandler
	enableCORS   bool
	logger       *zap.Logger
}

// NewRouter creates a new router instance. A nil limiter disables rate
// limiting and a nil tracer disables tracing.
func NewRouter(
	ingestion *services.IngestionService,
	ledger ports.LedgerStore,
	projection *queries.InventoryProjection,
	limiter ratelimit.Limiter,
	tracer *observability.Tracer,
	errorHandler *pkgerrors.ErrorHandler,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		ingestion:    ingestion,
		ledger:       ledger,
		projection:   projection,
		limiter:      limiter,
		tracer:       tracer,
		errorHandler: errorHandler,
		enableCORS:   enableCORS,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))

	if rt.tracer != nil {
		router.Use(rt.tracer.Middleware)
	}

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.eatclub.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	draftHandler := handlers.NewDraftHandler(rt.ingestion, rt.errorHandler, rt.logger)
	ledgerHandler := handlers.NewLedgerHandler(rt.ledger, rt.projection, rt.errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.limiter, rt.logger))

		// Draft session endpoints
		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", draftHandler.CreateDraft)
			r.Get("/", draftHandler.ListDrafts)
			r.Get("/{draftID}", draftHandler.GetDraft)
			r.Put("/{draftID}/items", draftHandler.EditDraft)
			r.Post("/{draftID}/confirm", draftHandler.ConfirmDraft)
			r.Post("/{draftID}/reject", draftHandler.RejectDraft)
		})

		// Manual direct entry
		r.Post("/entries", draftHandler.CreateEntry)

		// Ledger and inventory endpoints
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", ledgerHandler.ListEntries)
			r.Get("/{seq}", ledgerHandler.GetEntry)
		})
		r.Get("/inventory", ledgerHandler.GetInventory)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
