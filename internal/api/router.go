package api

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/web"
)

// Options are the dependencies of the router.
type Options struct {
	Items     ItemStore
	Photos    PhotoStore
	Processor *imaging.Processor
	Pages     *web.Server
	// Public is served for every GET path no route claims.
	Public  fs.FS
	Started time.Time
}

// NewRouter creates the router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	itemsHandler := &ItemsHandler{Items: opts.Items, Photos: opts.Photos, Processor: opts.Processor}
	healthHandler := &HealthHandler{DB: opts.Items, Started: opts.Started}

	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(corsOptions().Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "Not found")
	})

	r.Get("/health", healthHandler.Check)
	r.Get("/", opts.Pages.Landing)

	r.Post("/register", itemsHandler.Register)

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", itemsHandler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", itemsHandler.Get)
			r.Put("/", itemsHandler.Update)
			r.Patch("/", itemsHandler.Update)
			r.Delete("/", itemsHandler.Delete)
			r.Post("/photo", itemsHandler.ReplacePhoto)
		})
	})

	// Static trees bypass the handlers.
	uploads := http.StripPrefix("/uploads", http.FileServer(http.Dir(opts.Photos.Dir())))
	r.Get("/uploads/*", noDirectoryListing(uploads))
	r.Get("/*", noDirectoryListing(http.FileServer(http.FS(opts.Public))))

	return r
}

// noDirectoryListing answers requests for directories with 404.
func noDirectoryListing(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	}
}
