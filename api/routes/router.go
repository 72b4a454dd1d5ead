package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/solarpo-backend/api/controllers"
	"github.com/angelmondragon/solarpo-backend/api/controllers/materialorders"
	"github.com/angelmondragon/solarpo-backend/api/middleware"
	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

// Deps carries what the admin API serves from. Redis may be nil when the
// service runs without it.
type Deps struct {
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Generator materialorders.Generator
	Orders    materialorders.OrderService
	Gatherer  prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Operator(logg))

		r.Route("/jobs/{jobId}", func(r chi.Router) {
			r.Post("/material-orders", materialorders.Ensure(deps.Generator, logg))
			r.Get("/material-orders", materialorders.ListByJob(deps.Orders, logg))
			r.Get("/material-list", materialorders.MaterialList(deps.Generator, logg))
		})
		r.Route("/material-orders", func(r chi.Router) {
			r.Get("/", materialorders.List(deps.Orders, logg))
			r.Post("/sweep", materialorders.Sweep(deps.Generator, logg))
			r.Get("/{orderId}", materialorders.Detail(deps.Orders, logg))
			r.Patch("/{orderId}/status", materialorders.UpdateStatus(deps.Orders, logg))
		})
	})

	return r
}
