package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amavi/catalogo/internal/auth"
	"github.com/amavi/catalogo/internal/catalog"
	webembed "github.com/amavi/catalogo/web"
)

// Server holds all dependencies for page handlers.
type Server struct {
	Catalog       *catalog.Service
	Credentials   *auth.Credentials
	Templates     *Templates
	SessionSecret string
	SecureCookies bool
}

// Options configures the application router.
type Options struct {
	Catalog       *catalog.Service
	Credentials   *auth.Credentials
	SessionSecret string
	SecureCookies bool

	// Media serves locally stored photos under /media when set.
	Media http.Handler
	// API is mounted under /api when set.
	API http.Handler
}

// NewRouter creates the application router with all routes registered.
func NewRouter(opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Catalog:       opts.Catalog,
		Credentials:   opts.Credentials,
		Templates:     templates,
		SessionSecret: opts.SessionSecret,
		SecureCookies: opts.SecureCookies,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(SessionMiddleware(opts.SessionSecret))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	if opts.Media != nil {
		r.Handle("/media/*", http.StripPrefix("/media", opts.Media))
	}
	if opts.API != nil {
		r.Mount("/api", opts.API)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		plainText(w, http.StatusOK, "ok")
	})

	// Storefront.
	r.Get("/", s.Index)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", s.LoginPage)
		r.Post("/login", s.LoginSubmit)
		r.Post("/logout", s.Logout)

		r.With(RequireAdminJSON).Post("/pecas/disponibilidade/{id}", s.AvailabilitySubmit)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", s.AdminPage)
			r.Get("/pecas/nova", s.NewItemPage)
			r.Post("/pecas/nova", s.CreateItemSubmit)
			r.Get("/pecas/editar/{id}", s.EditItemPage)
			r.Post("/pecas/editar/{id}", s.UpdateItemSubmit)
			r.Get("/pecas/excluir/{id}", s.DeleteItem)
		})
	})

	return r, nil
}
