package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. API registrars mount under the
// versioned prefix; root registrars mount at the engine root for documents
// that must live at a fixed path, like /sitemap.xml.
type Router struct {
	engine         *gin.Engine
	apiVersion     string
	registrars     []RouteRegistrar
	rootRegistrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar under the versioned API prefix
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// RegisterRoot adds a RouteRegistrar at the engine root
func (r *Router) RegisterRoot(registrar RouteRegistrar) *Router {
	r.rootRegistrars = append(r.rootRegistrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	for _, registrar := range r.rootRegistrars {
		registrar.RegisterRoutes(&r.engine.RouterGroup)
	}
}
