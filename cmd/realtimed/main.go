// Command realtimed runs the realtime broadcast service: WebSocket
// endpoint, diagnostics API, liveness monitor, and the optional Redis
// relay for multi-instance deployments.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/shopfabric/realtime/config"
	"github.com/shopfabric/realtime/src/adapter"
	"github.com/shopfabric/realtime/src/hub"
	"github.com/shopfabric/realtime/src/relay"
	"github.com/shopfabric/realtime/src/service"
	"github.com/shopfabric/realtime/src/source"
	"github.com/shopfabric/realtime/src/transport"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.New(cfg.SendBuffer, logger)
	bus := source.NewBus(logger)
	svc := service.New(h, bus, logger)
	adapter.New(bus, h, nil, logger)
	monitor := hub.NewMonitor(h, cfg.ConnectionTimeout, cfg.SweepInterval, logger)

	// The relay is optional: without Redis the hub runs standalone.
	var rl *relay.RedisRelay
	if cfg.Redis.Enabled {
		rl = relay.New(cfg.Redis, h, logger)
		if err := rl.Start(); err != nil {
			logger.Warn().Err(err).Msg("redis relay unavailable, running standalone")
			rl = nil
		} else {
			h.SetRelay(rl)
			svc.SetTrail(rl)
		}
	}

	ws := transport.NewWSHandler(svc, cfg, logger)
	app := fiber.New()
	transport.NewDiagnostics(svc).RegisterRoutes(app)

	wsHandler := ws.Handler()
	appHandler := app.Handler()
	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			if strings.HasPrefix(string(ctx.Path()), "/ws") {
				wsHandler(ctx)
				return
			}
			appHandler(ctx)
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("realtime service listening")
		return server.ListenAndServe(cfg.HTTPAddr)
	})
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if rl != nil {
			if err := rl.Stop(); err != nil {
				logger.Error().Err(err).Msg("relay stop error")
			}
		}
		h.Shutdown()
		return server.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("service exited with error")
	}
	logger.Info().Msg("realtime service stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv(), nil
	}
	return config.LoadAndValidate(path)
}
