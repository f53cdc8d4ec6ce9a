package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/config"
	"github.com/agenthands/annuaire/internal/importer"
	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/source"
)

// Service is what the handlers need from the import layer.
type Service interface {
	Process(ctx context.Context, kind record.Kind, in source.Input) (importer.Result, error)
	Add(ctx context.Context, kind record.Kind, rec record.Record) (int64, error)
	Replace(ctx context.Context, kind record.Kind, recs []record.Record) error
	List(ctx context.Context, kind record.Kind) ([]record.Record, error)
	Ping(ctx context.Context) error
}

type Server struct {
	Service Service
	Config  config.ServerConfig
	Log     logrus.FieldLogger
}

func NewServer(svc Service, cfg config.ServerConfig, log logrus.FieldLogger) *Server {
	return &Server{
		Service: svc,
		Config:  cfg,
		Log:     log,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.maxUpload()
	r.Use(requestID(), accessLog(s.Log), recovery(s.Log))

	for _, kind := range record.Kinds {
		r.GET(kind.ListPath(), s.List(kind))
		r.POST(kind.SubmitPath(), s.Process(kind))
		r.POST(kind.CreatePath(), s.Add(kind))
		r.PUT(kind.ReplacePath(), s.Replace(kind))
	}
	r.GET("/healthz", s.Health)

	return r
}

// Handler is the router behind the CORS layer.
func (s *Server) Handler() http.Handler {
	origins := s.Config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(s.SetupRouter())
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.WithField("addr", s.Config.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.Log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) maxUpload() int64 {
	if s.Config.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return s.Config.MaxUploadMB << 20
}
