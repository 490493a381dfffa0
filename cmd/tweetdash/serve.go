package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tweetdash/internal/config"
	"tweetdash/internal/gateway"
	"tweetdash/internal/handlers"
	"tweetdash/internal/middleware"
	"tweetdash/internal/session"
	"tweetdash/internal/telemetry"
	"tweetdash/internal/utils"
	"tweetdash/internal/views"
)

// App is the running dashboard host.
type App struct {
	cfg         *config.Config
	logger      *utils.Logger
	session     *session.Dashboard
	renderer    *views.Renderer
	wsHub       *middleware.Hub
	rateLimiter *middleware.RateLimiter
}

func newServeCommand(c *cli) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the dashboard for one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				c.cfg.Server.Port = port
			}
			app, err := newApp(c.cfg, c.logger, c.contentClient())
			if err != nil {
				return err
			}
			return app.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

func newApp(cfg *config.Config, logger *utils.Logger, svc gateway.ContentService) (*App, error) {
	renderer, err := views.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	sampler := telemetry.New(utils.ExecutablePaths().RootPath, time.Now, logger)
	return &App{
		cfg:         cfg,
		logger:      logger,
		session:     session.New(session.OptionsFromConfig(cfg, svc, sampler, logger)),
		renderer:    renderer,
		wsHub:       middleware.NewHub(logger),
		rateLimiter: middleware.NewRateLimiter(cfg.Server.RatePerMinute, cfg.Server.RateBurst),
	}, nil
}

func (a *App) serve(ctx context.Context) error {
	if a.cfg.Server.UseTLS && (a.cfg.Server.TLSCert == "" || a.cfg.Server.TLSKey == "") {
		return errors.New("TLS is enabled but tls_cert or tls_key not provided")
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.wsHub.Run(hubCtx)
	defer a.rateLimiter.Stop()

	r := a.setupRouter()
	if err := a.session.Mount(ctx); err != nil {
		return fmt.Errorf("mount session: %w", err)
	}

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(a.cfg.Server.Port),
		Handler: r,
		// generation may take as long as the content service timeout
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   a.cfg.Content.RequestTimeout + 15*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if a.cfg.Server.UseTLS {
			a.logger.Infof("Starting HTTPS server on port %d", a.cfg.Server.Port)
			err = srv.ListenAndServeTLS(a.cfg.Server.TLSCert, a.cfg.Server.TLSKey)
		} else {
			a.logger.Infof("Starting server on port %d", a.cfg.Server.Port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Infof("Shutting down server...")
	case serveErr = <-errCh:
	}

	if err := a.session.Teardown(); err != nil {
		a.logger.Warnf("session teardown: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Infof("Server exited")
	return serveErr
}

func (a *App) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(middleware.SecurityHeaders(a.cfg.Server.AllowIFrame))
	r.Use(middleware.CORS())

	h := handlers.NewDashboardHandlers(a.session, a.renderer, a.wsHub, a.logger)
	h.Attach()
	h.Register(r, a.rateLimiter.Middleware())
	return r
}
