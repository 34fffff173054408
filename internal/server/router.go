package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/sitekeeper/internal/auth"
	"github.com/loykin/sitekeeper/internal/backend"
	"github.com/loykin/sitekeeper/internal/config"
	mng "github.com/loykin/sitekeeper/internal/manager"
	"github.com/loykin/sitekeeper/internal/metrics"
	"github.com/loykin/sitekeeper/internal/site"
)

// Router provides embeddable HTTP handlers for managing sites.
// Endpoints:
//   POST   {basePath}/start    query: name=...
//   POST   {basePath}/stop     query: name=...
//   POST   {basePath}/restart  query: name=...
//   GET    {basePath}/status   query: name=... (optional; omitted returns all)
//   GET    {basePath}/logs/:name     query: lines=N
//   GET    {basePath}/stream/:name   SSE log follow
//   POST   {basePath}/sites    body: Spec JSON
//   DELETE {basePath}/sites/:name
//   POST   {basePath}/reload
//   GET    {basePath}/metrics
// basePath may be empty or start with '/'; no trailing slash.

type Router struct {
	mgr      *mng.Manager
	basePath string
	authMW   *auth.Middleware
	onChange func([]site.Spec)
	onReload func() ([]site.Spec, error)
}

// NewRouter constructs a new Router with configurable basePath.
// onChange, when non-nil, is invoked with the full site list after every
// successful add or remove so the caller can persist it.
func NewRouter(mgr *mng.Manager, basePath string, a config.Auth, onChange func([]site.Spec)) *Router {
	return &Router{
		mgr:      mgr,
		basePath: sanitizeBase(basePath),
		authMW:   auth.New(a.Username, a.Password, a.Token),
		onChange: onChange,
	}
}

// SetReload installs the loader invoked by POST {basePath}/reload. It
// re-reads the site list from the config source; the handler swaps the
// registry contents with it. Without a loader the endpoint answers 501.
func (r *Router) SetReload(fn func() ([]site.Spec, error)) {
	r.onReload = fn
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.Use(r.authMW.GinAuth())
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/restart", r.handleRestart)
	group.GET("/status", r.handleStatus)
	group.GET("/logs/:name", r.handleLogs)
	group.GET("/stream/:name", r.handleStream)
	group.POST("/sites", r.handleAddSite)
	group.DELETE("/sites/:name", r.handleRemoveSite)
	group.POST("/reload", r.handleReload)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, r *Router) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) siteFromQuery(c *gin.Context) (string, bool) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return "", false
	}
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9_-]"})
		return "", false
	}
	return name, true
}

func (r *Router) lifecycle(c *gin.Context, op func(string) error) {
	name, ok := r.siteFromQuery(c)
	if !ok {
		return
	}
	if err := op(name); err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStart(c *gin.Context)   { r.lifecycle(c, r.mgr.Start) }
func (r *Router) handleStop(c *gin.Context)    { r.lifecycle(c, r.mgr.Stop) }
func (r *Router) handleRestart(c *gin.Context) { r.lifecycle(c, r.mgr.Restart) }

func (r *Router) handleStatus(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusOK, r.mgr.StatusAll())
		return
	}
	st, err := r.mgr.Status(name)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, st)
}

func (r *Router) handleLogs(c *gin.Context) {
	name := c.Param("name")
	n := 0
	if v := c.Query("lines"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "lines must be a non-negative integer"})
			return
		}
		n = parsed
	}
	lines, err := r.mgr.Tail(name, n)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"name": name, "lines": lines})
}

func (r *Router) handleAddSite(c *gin.Context) {
	var spec site.Spec
	if err := c.ShouldBindJSON(&spec); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := r.mgr.Registry().Add(spec); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	r.notifyChange()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleRemoveSite(c *gin.Context) {
	name := c.Param("name")
	st, err := r.mgr.Status(name)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	if st.Running {
		writeJSON(c, http.StatusConflict, errorResp{Error: "site is running; stop it before removing"})
		return
	}
	if err := r.mgr.Registry().Remove(name); err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	r.notifyChange()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleReload(c *gin.Context) {
	if r.onReload == nil {
		writeJSON(c, http.StatusNotImplemented, errorResp{Error: "reload not supported"})
		return
	}
	specs, err := r.onReload()
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	if err := r.mgr.Registry().Replace(specs); err != nil {
		// valid specs were applied; report the first rejected one
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) notifyChange() {
	if r.onChange == nil {
		return
	}
	r.onChange(r.mgr.Registry().List())
}

func statusFor(err error) int {
	if errors.Is(err, site.ErrNotFound) {
		return http.StatusNotFound
	}
	var be *backend.Error
	if errors.As(err, &be) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
