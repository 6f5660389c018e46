package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"toll-console/internal/async"
	"toll-console/internal/config"
	"toll-console/internal/console"
	"toll-console/internal/logging"
	"toll-console/internal/tollapi"
)

const serviceName = "toll-console"

var (
	configPath      = flag.String("config", "", "Optional config file (yaml, json or toml)")
	backendURL      = flag.String("backend_url", tollapi.DefaultBaseURL, "Tolling backend base URL")
	httpPort        = flag.Int("port", 3000, "HTTP port")
	shutdownTimeout = flag.Duration("shutdown_timeout", 10*time.Second, "HTTP server shutdown timeout")
	staticDir       = flag.String("static_dir", "./static", "Directory served at /")
	logLevel        = flag.String("log_level", "info", "Log level: debug, info, warn or error")
	gtfsrtURL       = flag.String("gtfsrt_url", "", "GTFS-RT vehicle positions URL (protobuf)")
	siriXmlURL      = flag.String("siri_xml_url", "", "SIRI VehicleMonitoring XML URL")
	siriJsonURL     = flag.String("siri_json_url", "", "SIRI VehicleMonitoring JSON URL")
	amqpURL         = flag.String("amqp_url", "", "AMQP broker URL carrying device GPS messages")
	kafkaBrokers    = flag.String("kafka_brokers", "", "Comma-separated Kafka brokers carrying device GPS messages")
	refreshMinSecs  = flag.Int("refresh_min_secs", 10, "Minimum ingest refresh interval in seconds")
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"backend_url":      "backend.base_url",
	"port":             "http.port",
	"shutdown_timeout": "http.shutdown_timeout",
	"static_dir":       "http.static_dir",
	"log_level":        "log.level",
	"gtfsrt_url":       "ingest.gtfsrt_url",
	"siri_xml_url":     "ingest.siri_xml_url",
	"siri_json_url":    "ingest.siri_json_url",
	"amqp_url":         "ingest.amqp_url",
	"kafka_brokers":    "ingest.kafka_brokers",
	"refresh_min_secs": "ingest.refresh_min_secs",
}

// flagOverrides returns only the flags given on the command line, so
// unset flags never mask the config file or environment.
func flagOverrides() map[string]any {
	out := make(map[string]any)
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			out[key] = f.Value.(flag.Getter).Get()
		}
	})
	return out
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath, flagOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log := logging.New(serviceName, cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(log)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	api := tollapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, tollapi.WithLogger(log.With("component", "tollapi")))
	hub := newHub(log)
	deps := console.Deps{
		API:      api,
		Log:      log,
		Clock:    async.SystemClock,
		FlashTTL: cfg.Console.FlashTTL,
	}
	sctx, scancel := context.WithCancel(context.Background())
	ws := newConsoleHandler(sctx, hub, deps, log, cfg.HTTP.AllowedOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           newRouter(cfg.HTTP.StaticDir, cfg.HTTP.AllowedOrigins, ws, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d/", cfg.HTTP.Port), "backend", api.BaseURL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	pctx, pcancel := context.WithCancel(context.Background())
	if feed := selectFeed(cfg.Ingest, log); feed != nil {
		if push, ok := feed.(PushSource); ok {
			go runStream(pctx, push, log)
		}
		poll := newPoller(feed, api, hub, log.With("component", "ingest"), cfg.Ingest.RefreshMin(), cfg.Ingest.GeohashPrecision)
		go poll.run(pctx)
		log.Info("telemetry ingest enabled", "source", cfg.Ingest.Source())
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutdown initiated", "sessions", hub.count())

	pcancel()
	scancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", "err", err)
	} else {
		log.Info("HTTP server shut down successfully")
	}
	if err := ws.wait(ctx); err != nil {
		log.Error("console sessions did not close", "err", err)
	}
}

// selectFeed returns nil when no ingest source is configured.
func selectFeed(c config.IngestConfig, log *slog.Logger) PositionSource {
	const timeout = 10 * time.Second
	switch c.Source() {
	case config.SourceGTFSRT:
		return NewGtfsRtPositionSource(c.GTFSRTURL, timeout)
	case config.SourceSIRIXML:
		return NewSiriXmlPositionSource(c.SIRIXMLURL, timeout)
	case config.SourceSIRIJSON:
		return NewSiriJsonPositionSource(c.SIRIJSONURL, timeout)
	case config.SourceAMQP:
		return NewAmqpPositionSource(c.AMQPURL, c.AMQPQueue, log.With("component", "amqp"))
	case config.SourceKafka:
		return NewKafkaPositionSource(c.KafkaBrokers, c.KafkaTopic, c.KafkaGroupID, log.With("component", "kafka"))
	}
	return nil
}
