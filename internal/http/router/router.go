package router

import (
	"net/http"
	"strings"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/http/handler"
	"github.com/contoso/jobsite-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/contoso/jobsite-api/docs" // Import generated swagger docs
)

// UploadsPath is where local storage files are served
const UploadsPath = "/uploads"

type Router struct {
	cfg           *config.Config
	logger        *zap.Logger
	rateLimiter   *middleware.RateLimiter
	healthHandler *handler.HealthHandler
	jobHandler    *handler.JobHandler
	photoHandler  *handler.PhotoHandler
	uploadsDir    string
}

// NewRouter wires the handlers. uploadsDir is served under /uploads when not empty.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	rateLimiter *middleware.RateLimiter,
	healthHandler *handler.HealthHandler,
	jobHandler *handler.JobHandler,
	photoHandler *handler.PhotoHandler,
	uploadsDir string,
) *Router {
	return &Router{
		cfg:           cfg,
		logger:        logger,
		rateLimiter:   rateLimiter,
		healthHandler: healthHandler,
		jobHandler:    jobHandler,
		photoHandler:  photoHandler,
		uploadsDir:    uploadsDir,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}

	r.Get("/health", rt.healthHandler.Live)
	r.Get("/health/db", rt.healthHandler.Database)
	r.Get("/health/ready", rt.healthHandler.Ready)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	if rt.uploadsDir != "" {
		r.Handle(UploadsPath+"/*", uploadsHandler(rt.uploadsDir))
	}

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", rt.jobHandler.List)
		r.Post("/", rt.jobHandler.Create)

		// Search. The trailing slash forms carry an empty query.
		r.Get("/search/", rt.jobHandler.SearchByName)
		r.Get("/search/{query}", rt.jobHandler.SearchByName)
		r.Get("/search/name/", rt.jobHandler.SearchByName)
		r.Get("/search/name/{query}", rt.jobHandler.SearchByName)
		r.Get("/search/location/{coordinate}", rt.jobHandler.SearchByLocation)

		r.Get("/{id}", rt.jobHandler.GetByID)
		r.Delete("/{id}", rt.jobHandler.Delete)
		r.Get("/{id}/report", rt.jobHandler.Report)

		// Photos
		r.Get("/{id}/photos", rt.photoHandler.List)
		r.Post("/{id}/photos", rt.photoHandler.CreateMetadata)
		r.Post("/{id}/photos/upload", rt.photoHandler.Upload)
		r.Post("/{id}/photos/{lat}/{lng}/{heading}", rt.photoHandler.UploadGeotagged)
	})

	return r
}

// uploadsHandler serves stored files without directory listings
func uploadsHandler(dir string) http.Handler {
	files := http.StripPrefix(UploadsPath, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
