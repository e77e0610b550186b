// Package web is the operator-facing HTML surface of the admin panel: a
// login page and a single table page with search, inline edit, add and
// delete, each action posting to its own handler.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clientadmin/internal/logging"
	"github.com/dmitrijs2005/clientadmin/internal/server/records"
	"github.com/dmitrijs2005/clientadmin/internal/server/session"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

//go:embed templates/*.html
var templatesFS embed.FS

const shutdownTimeout = 10 * time.Second

// RecordService is the record store as seen by the handlers.
// *records.Service implements it.
type RecordService interface {
	Load(ctx context.Context) (*records.Snapshot, error)
	Edit(ctx context.Context, rows []records.Row, revision string) (*records.Snapshot, error)
	Create(ctx context.Context, r records.Record, revision string) (*records.Snapshot, error)
	Delete(ctx context.Context, ids []string, revision string) (*records.Snapshot, error)
}

type Options struct {
	Address      string
	MaxBodyBytes int64
	RateLimit    rate.Limit
	RateBurst    int
}

func (o *Options) setDefaults() {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 10
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 30
	}
}

type Server struct {
	address string
	engine  *gin.Engine
	records RecordService
	gate    *session.Gate
	codec   *session.Codec
	logger  logging.Logger
}

func NewServer(opts Options, rs RecordService, gate *session.Gate, codec *session.Codec, l logging.Logger) *Server {
	opts.setDefaults()

	s := &Server{
		address: opts.Address,
		records: rs,
		gate:    gate,
		codec:   codec,
		logger:  l.With("module", "web"),
	}

	tmpl := template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(Recovery(s.logger))
	r.Use(RequestLogger(s.logger))
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(opts.MaxBodyBytes))
	r.Use(NewRateLimiter(opts.RateLimit, opts.RateBurst).Middleware())

	r.GET("/healthz", s.healthz)

	r.Use(LoadSession(codec, s.logger))
	r.GET("/login", s.loginPage)
	r.POST("/login", s.login)

	authed := r.Group("/", RequireAuth())
	{
		authed.GET("/", s.index)
		authed.POST("/records/edit", s.editRecords)
		authed.POST("/records", s.createRecord)
		authed.POST("/records/delete", s.deleteRecords)
	}

	s.engine = r
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
