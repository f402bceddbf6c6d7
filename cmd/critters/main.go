package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"critters/internal/breeder"
	clog "critters/internal/log"
	"critters/internal/report"
	"critters/internal/showcase"
	"critters/internal/storage"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		fmt.Println(appName, "version", version())
		return nil
	}

	if err := clog.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename)); err != nil {
		return err
	}
	defer clog.CloseLogRotator()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	store, err := storage.NewStore(cfg.Store, cfg.SQLitePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init %s store: %w", cfg.Store, err)
	}
	defer func() {
		if err := storage.CloseIfSupported(store); err != nil {
			log.Errorf("Unable to close store: %v", err)
		}
	}()

	runID := uuid.NewString()
	b, err := breeder.New(cfg.policy(), breeder.WithRunID(runID))
	if err != nil {
		return err
	}
	defer b.Close()

	if err := store.SaveRun(ctx, b.RunRecord(time.Now())); err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}
	log.Infof("Starting run %s (seed %d, %d threads)", runID, cfg.Seed, cfg.Threads)
	log.Debugf("Policy: %v", newLogClosure(func() string {
		return fmt.Sprintf("%+v", b.Policy())
	}))

	reporters := report.Multi{
		report.NewLogReporter(nil),
		report.NewStoreReporter(store),
	}
	if cfg.MetricsListen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		reporters = append(reporters, report.NewMetricsReporter(reg))

		shutdown, err := serveMetrics(cfg.MetricsListen, reg)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	var sc *showcase.Showcase
	if cfg.Showcase {
		sc, err = showcase.New(b, cfg.showcase())
		if err != nil {
			return err
		}
		defer sc.Close()
	}

	g, gctx := errgroup.WithContext(ctx)
	loopDone, endLoop := context.WithCancel(gctx)
	defer endLoop()

	g.Go(func() error {
		defer endLoop()
		return b.Run(gctx, reporters)
	})
	if sc != nil {
		g.Go(func() error {
			err := sc.Run(loopDone)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		g.Go(func() error {
			shakeOnSignal(loopDone, hup, sc)
			return nil
		})
	}

	err = g.Wait()
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	if cfg.ExportDir != "" {
		// The root context may be cancelled by now.
		exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := exportRun(exportCtx, cfg.ExportDir, store, b); err != nil {
			return fmt.Errorf("export run %s: %w", runID, err)
		}
	}

	if interrupted {
		log.Infof("Run %s interrupted after %d generations", runID, b.Generation())
		return nil
	}
	log.Infof("Run %s finished after %d generations (top fitness %.3f)",
		runID, b.Generation(), b.Fitness())
	return nil
}

type shaker interface {
	RequestShake()
}

// shakeOnSignal asks the showcase to scatter its scene for every signal
// received until ctx is done.
func shakeOnSignal(ctx context.Context, sigs <-chan os.Signal, sc shaker) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			log.Infof("Received %v, shaking the showcase", sig)
			sc.RequestShake()
		}
	}
}

// serveMetrics starts the prometheus endpoint and returns its shutdown
// function. The listener is bound before returning so address errors surface
// immediately.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infof("Metrics server listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("Metrics server shutdown: %v", err)
		}
	}, nil
}
