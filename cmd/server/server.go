package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/marben/async_mandel/engine"
	"github.com/marben/async_mandel/server"
)

// main is the entry point for the Mandelbrot server.
// Rendering happens in-process on a background worker; http handlers only submit and read.
func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

type config struct {
	addr      string
	staticDir string
	workers   int
	origins   string
}

// parseConfig reads flags, falling back to MANDEL_* environment variables.
func parseConfig(args []string) (config, error) {
	cfg := config{
		addr:      envOr("MANDEL_ADDR", ":8080"),
		staticDir: envOr("MANDEL_STATIC_DIR", "./static"),
	}
	if v := os.Getenv("MANDEL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("MANDEL_WORKERS: %w", err)
		}
		cfg.workers = n
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.addr, "addr", cfg.addr, "http listen address")
	fs.StringVar(&cfg.staticDir, "static", cfg.staticDir, "directory served at /, empty to disable")
	fs.IntVar(&cfg.workers, "workers", cfg.workers, "render goroutines per generation, 0 for GOMAXPROCS")
	fs.StringVar(&cfg.origins, "origins", "", "comma separated origin patterns allowed on /ws")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func run(args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(engine.WithWorkers(cfg.workers))
	defer eng.Close()

	opts := []server.Option{}
	if st, err := os.Stat(cfg.staticDir); err == nil && st.IsDir() {
		opts = append(opts, server.WithStaticDir(cfg.staticDir))
	}
	if cfg.origins != "" {
		opts = append(opts, server.WithOriginPatterns(strings.Split(cfg.origins, ",")...))
	}
	srv := server.New(eng, opts...)

	// srv.Run is the caller context: completion callbacks run on it.
	go func() {
		if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("dispatch: %v", err)
		}
	}()

	if err := serve(ctx, webServer(cfg.addr, srv.Handler())); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	log.Printf("shutting down")
	return nil
}
