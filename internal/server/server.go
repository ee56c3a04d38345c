// Package server exposes the application over a small JSON API.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/stargazers/internal/domain"
	"github.com/naka-gawa/stargazers/internal/render"
	"github.com/naka-gawa/stargazers/internal/usecase"
)

// Server wires an App to HTTP handlers.
type Server struct {
	app          *usecase.App
	logger       *logrus.Logger
	shareBaseURL string
	// loadCtx bounds background loads; it is cancelled on shutdown.
	loadCtx context.Context
}

// New creates a Server. Loads started through the API run under ctx.
func New(ctx context.Context, app *usecase.App, shareBaseURL string, logger *logrus.Logger) *Server {
	return &Server{
		app:          app,
		logger:       logger,
		shareBaseURL: shareBaseURL,
		loadCtx:      ctx,
	}
}

type loadRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type errorResponse struct {
	Error string        `json:"error"`
	Kind  string        `json:"kind,omitempty"`
	Alert *domain.Alert `json:"alert,omitempty"`
}

// Router builds the gin engine. allowedOrigins feeds the CORS middleware.
func (s *Server) Router(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/state", s.getState)
	api.POST("/repos", s.postRepo)
	api.DELETE("/repos/:owner/:name", s.deleteRepo)
	api.POST("/load/cancel", s.postCancel)
	api.DELETE("/alert", s.deleteAlert)
	api.GET("/chart", s.getChart)
	api.GET("/chart.png", s.getChartPNG)
	api.GET("/summary", s.getSummary)
	api.GET("/share", s.getShare)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Debug("Server: request handled.")
	}
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.State())
}

// postRepo validates synchronously and loads in the background; clients
// poll /api/state for progress.
func (s *Server) postRepo(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	id := domain.RepositoryIdentifier{Owner: req.Owner, Name: req.Name}

	session, err := s.app.Begin(id)
	if err != nil {
		s.rejection(c, err)
		return
	}

	go func() {
		if _, err := s.app.Run(s.loadCtx, session); err != nil {
			s.logger.WithField("repo", session.Target.String()).Debugf("Server: background load ended with error: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"session": session.ID.String(), "repo": session.Target.String()})
}

func (s *Server) rejection(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	status := http.StatusBadRequest
	switch vErr.Kind {
	case domain.KindDuplicate, domain.KindBusy:
		status = http.StatusConflict
	case domain.KindCapacityExceeded:
		status = http.StatusUnprocessableEntity
	}
	alert := s.app.State().Alert
	c.JSON(status, errorResponse{Error: vErr.Message, Kind: string(vErr.Kind), Alert: &alert})
}

func (s *Server) deleteRepo(c *gin.Context) {
	id := domain.RepositoryIdentifier{Owner: c.Param("owner"), Name: c.Param("name")}
	removed := s.app.RequestRemove(id)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) postCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancel_requested": s.app.RequestCancel()})
}

func (s *Server) deleteAlert(c *gin.Context) {
	s.app.DismissAlert()
	c.Status(http.StatusNoContent)
}

func (s *Server) getChart(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.State().Chart)
}

func (s *Server) getChartPNG(c *gin.Context) {
	var buf bytes.Buffer
	err := render.PNG(&buf, s.app.State().Chart, render.DefaultWidth, render.DefaultHeight)
	if errors.Is(err, render.ErrEmptyChart) {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Errorf("Server: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) getSummary(c *gin.Context) {
	summaries, err := usecase.Summarize(s.app.Records())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) getShare(c *gin.Context) {
	link, err := usecase.ShareURL(s.shareBaseURL, s.app.Records())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}
