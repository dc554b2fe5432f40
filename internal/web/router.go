// Package web serves the site: named routes, handlers, templates and the admin.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/cache"
	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/media"
	"github.com/yatube/yatube/internal/paginator"
	"github.com/yatube/yatube/pkg/logging"
	"github.com/yatube/yatube/pkg/telemetry"
)

// Options wires the router to its dependencies
type Options struct {
	DB            *db.DB
	Cache         cache.Store
	Media         *media.Storage
	Sessions      *auth.Sessions
	Telemetry     *telemetry.Telemetry
	MediaURL      string
	PageSize      int
	IndexCacheTTL time.Duration
}

// Router owns the repositories and renderers behind every page
type Router struct {
	db        *db.DB
	users     *db.UserRepository
	groups    *db.GroupRepository
	posts     *db.PostRepository
	comments  *db.CommentRepository
	follows   *db.FollowRepository
	flatpages *db.FlatPageRepository

	store     cache.Store
	fragments *cache.Fragments
	media     *media.Storage
	mediaURL  string
	sessions  *auth.Sessions
	telemetry *telemetry.Telemetry
	routes    *Routes
	renderer  *Renderer
	pageSize  int
	now       func() time.Time
	logger    *zap.Logger
}

// NewRouter creates a new site router
func NewRouter(opts Options) (*Router, error) {
	if opts.DB == nil || opts.Cache == nil || opts.Media == nil || opts.Sessions == nil {
		return nil, errors.New("web: database, cache, media and sessions are required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = paginator.DefaultPageSize
	}
	if opts.MediaURL == "" {
		opts.MediaURL = "/media/"
	}
	if opts.Telemetry == nil {
		opts.Telemetry = &telemetry.Telemetry{}
	}

	repo := db.NewRepository(opts.DB.DB)
	r := &Router{
		db:        opts.DB,
		users:     db.NewUserRepository(repo),
		groups:    db.NewGroupRepository(repo),
		posts:     db.NewPostRepository(repo),
		comments:  db.NewCommentRepository(repo),
		follows:   db.NewFollowRepository(repo),
		flatpages: db.NewFlatPageRepository(repo),
		store:     opts.Cache,
		fragments: cache.NewFragments(opts.Cache, opts.IndexCacheTTL),
		media:     opts.Media,
		mediaURL:  opts.MediaURL,
		sessions:  opts.Sessions,
		telemetry: opts.Telemetry,
		routes:    NewRoutes(),
		pageSize:  opts.PageSize,
		now:       time.Now,
		logger:    logging.WithComponent("web"),
	}

	renderer, err := NewRenderer(templateFuncs(r.routes, r.media.URL))
	if err != nil {
		return nil, err
	}
	r.renderer = renderer

	return r, nil
}

// Routes exposes the named route registry
func (r *Router) Routes() *Routes {
	return r.routes
}

// Fragments exposes the rendered fragment cache
func (r *Router) Fragments() *cache.Fragments {
	return r.fragments
}

// Handler builds a gin engine with every route and wraps it for tracing
func (r *Router) Handler() http.Handler {
	engine := gin.New()
	r.SetupRoutes(engine)
	return otelhttp.NewHandler(engine, "yatube",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}))
}

// SetupRoutes sets up all site routes on engine
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.HTMLRender = r.renderer
	engine.Use(
		r.recovery(),
		requestLogger(r.telemetry.Metrics),
		auth.LoadUser(r.sessions, r.users),
	)
	engine.NoRoute(r.notFound)

	// Service endpoints
	engine.GET("/health", r.healthHandler)
	if h := r.telemetry.MetricsHandler(); h != nil {
		engine.GET("/metrics", gin.WrapH(h))
	}
	mediaPrefix := "/" + strings.Trim(r.mediaURL, "/") + "/"
	engine.GET(mediaPrefix+"*filepath", gin.WrapH(http.StripPrefix(mediaPrefix, r.media.Handler())))

	r.registerRoutes(engine)
}

var (
	methodsGet     = []string{http.MethodGet}
	methodsPost    = []string{http.MethodPost}
	methodsGetPost = []string{http.MethodGet, http.MethodPost}
)

// registerRoutes registers all named routes
func (r *Router) registerRoutes(engine *gin.Engine) {
	rt := r.routes
	root := &engine.RouterGroup
	login := auth.LoginRequired()

	// Accounts
	accounts := engine.Group("/auth")
	rt.Handle(accounts, "signup", methodsGetPost, "/signup/", r.handle(r.signup))
	rt.Handle(accounts, "login", methodsGetPost, "/login/", r.handle(r.login))
	rt.Handle(accounts, "logout", methodsGetPost, "/logout/", r.handle(r.logout))

	// Static pages
	rt.Handle(root, "flatpage", methodsGet, "/about/:page/", r.handle(r.flatpage))

	// Back office
	r.registerAdmin(engine.Group("/admin", auth.StaffRequired()))

	// Posts
	rt.Handle(root, "index", methodsGet, "/", r.handle(r.index))
	rt.Handle(root, "group_posts", methodsGet, "/group/:slug/", r.handle(r.groupPosts))
	rt.Handle(root, "new_post", methodsGetPost, "/new/", login, r.handle(r.newPost))
	rt.Handle(root, "follow_index", methodsGet, "/follow/", login, r.handle(r.followIndex))
	rt.Handle(root, "profile", methodsGet, "/:username/", r.handle(r.profile))
	rt.Handle(root, "post", methodsGet, "/:username/:post_id/", r.handle(r.postView))
	rt.Handle(root, "post_edit", methodsGetPost, "/:username/:post_id/edit/", login, r.handle(r.postEdit))
	rt.Handle(root, "add_comment", methodsGetPost, "/:username/:post_id/comment", login, r.handle(r.addComment))
	rt.Handle(root, "profile_follow", methodsGetPost, "/:username/follow/", login, r.handle(r.profileFollow))
	rt.Handle(root, "profile_unfollow", methodsGetPost, "/:username/unfollow/", login, r.handle(r.profileUnfollow))
}

// handlerFunc is a page handler that reports failures instead of writing them
type handlerFunc func(c *gin.Context) error

// handle turns handler errors into the 404 or 500 page
func (r *Router) handle(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h(c)
		if err == nil {
			return
		}

		var httpErr *Error
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
			r.notFound(c)
			return
		}

		_ = c.Error(err)
		r.logger.Error("handler failed",
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		r.serverError(c)
	}
}

// page adds what every template expects to data
func (r *Router) page(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	if u := auth.CurrentUser(c); u != nil {
		data["User"] = u
	}
	data["Year"] = r.now().Year()
	return data
}

func (r *Router) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "misc/404.html", r.page(c, gin.H{"Path": c.Request.URL.Path}))
	c.Abort()
}

func (r *Router) serverError(c *gin.Context) {
	c.HTML(http.StatusInternalServerError, "misc/500.html", r.page(c, nil))
	c.Abort()
}

// redirect sends a 302 to the named route
func (r *Router) redirect(c *gin.Context, name string, params ...interface{}) error {
	target, err := r.routes.Reverse(name, params...)
	if err != nil {
		return fmt.Errorf("failed to build redirect: %w", err)
	}
	c.Redirect(http.StatusFound, target)
	return nil
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{"status": "OK", "service": "yatube"}
	code := http.StatusOK

	if err := r.db.Health(ctx); err != nil {
		status["status"] = "DEGRADED"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := r.store.Health(ctx); err != nil {
		status["status"] = "DEGRADED"
		status["cache"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
