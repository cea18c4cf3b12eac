// Command stoplightd runs the stoplight controller daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zereker/stoplight"
	"github.com/Zereker/stoplight/gnetx"
)

// zerologAdapter exposes a zerolog.Logger through the library's Logger
// interface.
type zerologAdapter struct {
	log zerolog.Logger
}

func (z zerologAdapter) Debug(msg string, args ...any) { z.emit(z.log.Debug(), msg, args) }
func (z zerologAdapter) Info(msg string, args ...any)  { z.emit(z.log.Info(), msg, args) }
func (z zerologAdapter) Warn(msg string, args ...any)  { z.emit(z.log.Warn(), msg, args) }
func (z zerologAdapter) Error(msg string, args ...any) { z.emit(z.log.Error(), msg, args) }

func (z zerologAdapter) emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerologAdapter{
		log: zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger stoplight.Logger) error {
	if cfg.Engine == "gnet" {
		srv := gnetx.NewServer(gnetx.Config{
			Addr:      cfg.Addr,
			Multicore: true,
			Logger:    logger,
		})
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
		return srv.Run()
	}

	opts := []stoplight.Option{stoplight.LoggerOption(logger)}
	if cfg.ChunkSize > 0 {
		opts = append(opts, stoplight.ChunkSizeOption(cfg.ChunkSize))
	}

	srv, err := stoplight.NewServer(cfg.Addr, opts...)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
