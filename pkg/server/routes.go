package server

import (
	"fmt"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/server/apihandlers"
)

const ReadHeaderTimeout = 5 * time.Second

var log = internal.GetLogger()

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	serverPort := appState.Config.Server.Port
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", serverPort),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))

	if appState.Config.Server.MaxRequestSize > 0 {
		router.Use(middleware.RequestSize(appState.Config.Server.MaxRequestSize))
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Product catalog and vector search routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", apihandlers.GetProductListHandler(appState))
			r.Post("/", apihandlers.CreateProductsHandler(appState))
			r.Post("/search", apihandlers.SearchProductsHandler(appState))
			r.Get("/search", apihandlers.SearchProductsTextHandler(appState))
			r.Get("/categories", apihandlers.GetProductCategoriesHandler(appState))
			r.Get("/top-rated", apihandlers.GetTopRatedProductsHandler(appState))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", apihandlers.GetProductHandler(appState))
				r.Get("/similar", apihandlers.GetSimilarProductsHandler(appState))
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", apihandlers.GetProductReviewsHandler(appState))
					r.Post("/", apihandlers.CreateProductReviewsHandler(appState))
					r.Get("/summary", apihandlers.GetReviewSummaryHandler(appState))
				})
			})
		})
		// Customer and order routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", apihandlers.GetCustomerListHandler(appState))
			r.Post("/", apihandlers.CreateCustomersHandler(appState))
			r.Route("/{customerId}", func(r chi.Router) {
				r.Get("/", apihandlers.GetCustomerHandler(appState))
				r.Get("/orders", apihandlers.GetCustomerOrdersHandler(appState))
				r.Get("/sessions", apihandlers.GetCustomerSessionsHandler(appState))
				r.Get("/insights", apihandlers.GetCustomerInsightsHandler(appState))
			})
		})
		r.Post("/orders", apihandlers.CreateOrdersHandler(appState))
		// Review routes
		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", apihandlers.CreateReviewsHandler(appState))
			r.Post("/search", apihandlers.SearchReviewsHandler(appState))
		})
		// Browsing session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", apihandlers.GetSessionListHandler(appState))
			r.Post("/", apihandlers.CreateSessionHandler(appState))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", apihandlers.GetSessionHandler(appState))
				r.Patch("/", apihandlers.UpdateSessionHandler(appState))
				r.Delete("/", apihandlers.DeleteSessionHandler(appState))
				r.Route("/events", func(r chi.Router) {
					r.Get("/", apihandlers.GetSessionEventsHandler(appState))
					r.Post("/", apihandlers.CreateSessionEventsHandler(appState))
				})
			})
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/sessions", apihandlers.GetSessionAnalyticsHandler(appState))
			r.Get("/popular-products", apihandlers.GetPopularProductsHandler(appState))
		})
	})

	return router
}
