package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/domain"
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/infrastructure/persistence/memory"
	simredis "github.com/wyfcoding/optionsengine/internal/marketsimulation/infrastructure/persistence/redis"
	"github.com/wyfcoding/optionsengine/pkg/cache"
	"github.com/wyfcoding/optionsengine/pkg/config"
	"github.com/wyfcoding/optionsengine/pkg/idgen"
	"github.com/wyfcoding/optionsengine/pkg/logger"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/optionsengine.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 日志级别随配置文件热更
	config.Watch(configPath, func(next *config.Config) {
		logger.SetLevel(next.Logger.Level)
	})

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(context.Background(), "server exited with error", "error", err)
	}
	logger.Info(context.Background(), "server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// 3. Metrics
	m := metrics.New(cfg.ServiceName)

	// 4. Infrastructure
	ids, err := idgen.New(cfg.NodeID)
	if err != nil {
		return err
	}
	repo, closeRepo, err := newRunRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	// 5. Interfaces
	gin.SetMode(gin.ReleaseMode)
	r := newRouter(cfg, m, repo, ids)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	servers := []*http.Server{httpServer}
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		servers = append(servers, &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux})
	}

	// 6. Start
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info(gctx, "HTTP server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// 7. Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newRunRepository 按配置选择模拟结果存储
func newRunRepository(ctx context.Context, cfg *config.Config) (domain.RunRepository, func(), error) {
	if cfg.Simulation.Store != "redis" {
		return memory.NewRunRepository(cfg.Simulation.RetainedRuns), func() {}, nil
	}
	rc, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := rc.Close(); err != nil {
			logger.Warn(context.Background(), "close redis failed", "error", err)
		}
	}
	ttl := time.Duration(cfg.Simulation.ResultTTL) * time.Second
	return simredis.NewRunRepository(rc, ttl), closeFn, nil
}
