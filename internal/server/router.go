package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/runner"
	"github.com/loykin/delayrun/internal/strategy"
	"github.com/loykin/delayrun/internal/token"
)

// Router provides embeddable HTTP handlers around a run manager.
// Endpoints:
//
//	POST {basePath}/run              body: runRequest JSON; executes synchronously
//	GET  {basePath}/runs             list retained run summaries
//	GET  {basePath}/runs/:id/events  emitted event history of one run
//	GET  {basePath}/stats            aggregate statistics snapshot
//	POST {basePath}/stats/reset      zero the aggregate statistics
//	GET  {basePath}/strategies       registered strategy names
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	mgr      *runner.Manager
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
func NewRouter(mgr *runner.Manager, basePath string) *Router {
	return &Router{mgr: mgr, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/run", r.handleRun)
	group.GET("/runs", r.handleRuns)
	group.GET("/runs/:id/events", r.handleRunEvents)
	group.GET("/stats", r.handleStats)
	group.POST("/stats/reset", r.handleStatsReset)
	group.GET("/strategies", r.handleStrategies)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, mgr *runner.Manager) (*http.Server, error) {
	r := NewRouter(mgr, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // runs may legitimately take a while
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

func sanitizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(base, "/")
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type runRequest struct {
	Weights     []float64 `json:"weights"`
	Unit        string    `json:"unit"`         // ms (default), s, us, ns
	Strategy    string    `json:"strategy"`     // default: delayed
	CancelAfter string    `json:"cancel_after"` // optional duration; trips the token
}

func parseUnit(s string) (time.Duration, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ms":
		return time.Millisecond, true
	case "s":
		return time.Second, true
	case "us":
		return time.Microsecond, true
	case "ns":
		return time.Nanosecond, true
	}
	return 0, false
}

func (r *Router) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}

	unit, ok := parseUnit(req.Unit)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResp{Error: "unsupported unit: " + req.Unit})
		return
	}
	name := req.Strategy
	if name == "" {
		name = strategy.Delayed
	}

	var tok *token.Token
	if req.CancelAfter != "" {
		d, err := time.ParseDuration(req.CancelAfter)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, errorResp{Error: "invalid cancel_after: " + req.CancelAfter})
			return
		}
		tok = token.New()
		timer := time.AfterFunc(d, tok.Trip)
		defer timer.Stop()
	}

	elems := element.FromWeights(req.Weights, unit)
	sum, res, err := r.mgr.Run(c.Request.Context(), name, elems, tok)
	if err != nil {
		// The summary still describes the failed run; surface both.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"summary": sum, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum, "elements": res.Elements})
}

func (r *Router) handleRuns(c *gin.Context) {
	c.JSON(http.StatusOK, r.mgr.Runs())
}

func (r *Router) handleRunEvents(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid run id"})
		return
	}
	events, err := r.mgr.Events(id)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (r *Router) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, r.mgr.Stats())
}

func (r *Router) handleStatsReset(c *gin.Context) {
	r.mgr.ResetStats()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (r *Router) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, strategy.Names())
}
