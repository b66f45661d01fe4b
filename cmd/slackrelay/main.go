package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/analytics"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/api"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/circuitbreaker"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/config"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/dispatcher"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/heartbeat"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/message"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/metrics"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/notifier"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "send":
		os.Exit(runSend(os.Args[2:]))
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`slackrelay - relays job execution notifications to a Slack webhook

Usage:
  slackrelay <command>

Commands:
  serve      Start the HTTP ingestion endpoint (and heartbeat, if configured)
  send       Relay one execution record from a file and exit
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (webhook URL masked)
  version    Print version information

Environment Variables:
  WEBHOOK_URL               Incoming webhook URL (required)
  WEBHOOK_CHANNEL           Override the webhook's default channel (#channel)
  WEBHOOK_USERNAME          Override the webhook's default username
  WEBHOOK_ICON_EMOJI        Override the webhook's default icon (:emoji:)
  ENVIRONMENT_NAME          Environment label on node entries, e.g. prod
  TIME_LOCATION             IANA zone for message timestamps (default: "Local")
  DELIVERY_TIMEOUT          Webhook request timeout (default: "30s")

  HTTP_ADDR                 HTTP server address (default: ":8080")
  HTTP_SHUTDOWN_TIMEOUT     Graceful shutdown timeout (default: "10s")
  METRICS_ENABLED           Expose Prometheus metrics ("true"/"false")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")

  REDIS_ADDR                Redis address for notification analytics (optional)
  ANALYTICS_WINDOW          Counter bucket size: 1m, 5m or 1h (default: "1m")
  ANALYTICS_RETENTION       Counter TTL (default: "24h")

  BREAKER_THRESHOLD         Consecutive failures before suppressing sends
                            (default: 0 = disabled)
  BREAKER_COOLDOWN          Suppression cooldown (default: "2m")

  HEARTBEAT_CRON            Five-field cron for liveness messages (optional)
  HEARTBEAT_TZ              Heartbeat schedule timezone (default: "UTC")`)
}

func runServe() int {
	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		return exitInvalidConfig
	}

	n, cleanup, breaker, handles := buildNotifier(cfg)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := api.NewHandler(n)
	if breaker != nil {
		handler = handler.WithBreakerState(breaker, cfg.WebhookURL)
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	if cfg.MetricsEnabled {
		mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(handles.Registry, promhttp.HandlerOpts{}))
	}

	if cfg.HeartbeatCron != "" {
		hb, err := heartbeat.New(cfg.HeartbeatCron, cfg.HeartbeatTimezone, n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid heartbeat configuration: %v\n", err)
			return exitInvalidConfig
		}
		if handles.Sink != nil {
			hb = hb.WithMetrics(handles.Sink)
		}
		go hb.Run(ctx)
		log.Printf("main: heartbeat enabled schedule=%q tz=%s", cfg.HeartbeatCron, cfg.HeartbeatTimezone)
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("main: listening on %s", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("main: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: shutdown: %v", err)
			return exitRuntimeError
		}
		return exitSuccess
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("main: server: %v", err)
			return exitRuntimeError
		}
		return exitSuccess
	}
}

func runSend(args []string) int {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	trigger := fs.String("trigger", "", "job-lifecycle trigger (start, success, failure, aborted, timedout)")
	recordPath := fs.String("record", "-", `execution record JSON file ("-" for stdin)`)
	debug := fs.Bool("debug", false, "log the payload when the endpoint rejects it")
	if err := fs.Parse(args); err != nil {
		return exitRuntimeError
	}
	if *trigger == "" {
		fmt.Fprintln(os.Stderr, "send: -trigger is required")
		return exitRuntimeError
	}

	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		return exitInvalidConfig
	}

	var (
		data []byte
		err  error
	)
	if *recordPath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*recordPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "send: read record: %v\n", err)
		return exitRuntimeError
	}

	rec, err := domain.DecodeRecord(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		return exitRuntimeError
	}

	n, cleanup, _, _ := buildNotifier(cfg)
	defer cleanup()
	n = n.WithDebug(*debug)

	res := n.Notify(context.Background(), domain.Trigger(*trigger), rec)
	fmt.Printf("outcome=%s", res.Outcome)
	if res.StatusCode != 0 {
		fmt.Printf(" status=%d", res.StatusCode)
	}
	fmt.Println()
	if res.Delivered() {
		return exitSuccess
	}
	return exitRuntimeError
}

// metricsHandles carries the optional metrics wiring out of buildNotifier.
type metricsHandles struct {
	Registry *prometheus.Registry
	Sink     *metrics.PrometheusSink
}

// buildNotifier assembles the pipeline from configuration. cleanup closes
// whatever was opened (currently the Redis client, if any).
func buildNotifier(cfg config.Config) (*notifier.Notifier, func(), *circuitbreaker.CircuitBreaker, metricsHandles) {
	sender := dispatcher.NewSender(cfg.DeliveryTimeout)
	opts := message.Options{
		Channel:         cfg.Channel,
		Username:        cfg.Username,
		IconEmoji:       cfg.IconEmoji,
		EnvironmentName: cfg.EnvironmentName,
		Location:        cfg.Location(),
	}
	n := notifier.New(cfg.WebhookURL, opts, sender)

	cleanup := func() {}
	var handles metricsHandles

	if cfg.MetricsEnabled {
		handles.Registry = prometheus.NewRegistry()
		handles.Sink = metrics.NewPrometheusSink(handles.Registry)
		n = n.WithMetrics(handles.Sink)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		sink := analytics.NewRedisSink(client, analytics.Config{
			Enabled:   true,
			Window:    cfg.AnalyticsWindow,
			Retention: cfg.AnalyticsRetention,
		})
		n = n.WithAnalytics(sink)
		cleanup = func() {
			if err := client.Close(); err != nil {
				log.Printf("main: close redis: %v", err)
			}
		}
	}

	var breaker *circuitbreaker.CircuitBreaker
	if cfg.BreakerThreshold > 0 {
		breaker = circuitbreaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown)
		n = n.WithBreaker(breaker)
	}

	return n, cleanup, breaker, handles
}

func runValidate() int {
	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		return exitInvalidConfig
	}
	if cfg.HeartbeatCron != "" {
		if _, err := heartbeat.New(cfg.HeartbeatCron, cfg.HeartbeatTimezone, nil); err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration:\n  - HEARTBEAT_CRON: %v\n", err)
			return exitInvalidConfig
		}
	}
	fmt.Println("configuration is valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()
	out, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "render configuration: %v\n", err)
		return exitRuntimeError
	}
	fmt.Println(string(out))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("slackrelay %s (%s)\n", version, commit)
	return exitSuccess
}
