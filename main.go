package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	bindFlag := flag.String("bind", "", "Override bind address (e.g. 0.0.0.0)")
	portFlag := flag.Int("port", 0, "Override port")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version)
		return
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = defaultConfigPath()
	}

	config, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *bindFlag != "" {
		config.Bind = *bindFlag
	}
	if *portFlag != 0 {
		config.Port = *portFlag
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stderr, config.LogLevel, config.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if err := run(config, logger); err != nil {
		logger.Fatal().Err(err).Msg("cpustream exited")
	}
}

func run(config *Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tel := newTelemetry(reg)

	hub := NewHub(WithHubTelemetry(tel))
	defer hub.Close()

	sampler := NewSampler(newHostCPU(), hub,
		WithInterval(config.SampleInterval),
		WithSamplerLogger(logger),
		WithSamplerTelemetry(tel),
	)
	srv := newServer(config, hub, reg, tel, logger)

	listenAddr := config.ListenAddr()
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}

	logger.Info().
		Str("version", version).
		Str("addr", listenAddr).
		Str("ws_path", config.WSPath).
		Dur("interval", config.SampleInterval).
		Msg("cpustream listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sampler.Run(gctx) })
	g.Go(func() error { return srv.Serve(gctx, listener) })

	err = g.Wait()
	logger.Info().Msg("shut down")
	return err
}
