package app

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/dkopi/db"
	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/domain/order"
	"github.com/xenking/dkopi/internal/domain/product"
	"github.com/xenking/dkopi/internal/handler"
	"github.com/xenking/dkopi/internal/mail"
	"github.com/xenking/dkopi/internal/session"
	"github.com/xenking/dkopi/pkg/health"
	"github.com/xenking/dkopi/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
//
// m is usually the *app.Telemetry handed out by go-faster/sdk.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("slot", cfg.Slot.Backend),
	)

	catalog, err := product.Load(db.Catalog)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	lg.Info("Catalog loaded", zap.String("version", catalog.Version()), zap.Int("products", catalog.Len()))

	healthSvc := health.New(health.WithLogger(lg.Named("health")))

	st, err := openStorage(ctx, lg, m, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer st.Close()

	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)

	// Domain services.
	sessions := session.NewRegistry(st.slot, session.WithLogger(lg.Named("cart")))
	defer sessions.Close()
	orderService := order.NewService(st.orders, mail.New(cfg.Mail))
	adminService := admin.NewService(st.inventory, st.users, st.orders, st.settings)
	auth := admin.NewAuth(jwtSecret(lg, cfg.Admin.JWTSecret), cfg.Admin.SessionTTL)

	h := handler.NewHandler(
		handler.HandlerConfig{
			ImageBaseURL: cfg.ImageBaseURL,
			SecureCookie: cfg.Session.SecureCookie,
			SessionTTL:   cfg.Session.TTL,
		},
		catalog,
		sessions,
		orderService,
		adminService,
		auth,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.HeaderRequestID},
				ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   isProbe,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("dkopi-storefront", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.Run(gCtx, cfg.Session.EvictInterval, cfg.Session.IdleEviction)
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	g.Go(func() error {
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}

// jwtSecret returns the configured console secret, or a random one that
// invalidates every console token on restart.
func jwtSecret(lg *zap.Logger, configured string) []byte {
	if s := strings.TrimSpace(configured); s != "" {
		return []byte(s)
	}
	lg.Warn("No admin JWT secret configured, generating an ephemeral one")
	return []byte(rand.Text())
}
