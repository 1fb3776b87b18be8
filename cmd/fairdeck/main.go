package main

import (
	"FairDeck/internal/chain"
	"FairDeck/internal/codec"
	"FairDeck/internal/events"
	"FairDeck/internal/game"
	"FairDeck/internal/observability"
	"FairDeck/internal/persistence"
	"FairDeck/internal/server"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds all application configuration, loaded from environment
// variables.
type Config struct {
	// Postgres round archive. Empty DSN disables archiving.
	PostgresDSN string

	// NATS round events. Empty URL disables publishing.
	NATSURL string

	// Channels
	ArchiveChanSize int
	EventChanSize   int

	// Archive worker
	ArchiveBatchSize    int
	ArchiveFlushTimeout time.Duration

	// HTTP/gRPC/Metrics
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	// Migrations
	MigrationsDir string
}

func DefaultConfig() Config {
	return Config{
		PostgresDSN:         os.Getenv("FAIRDECK_POSTGRES_DSN"),
		NATSURL:             os.Getenv("FAIRDECK_NATS_URL"),
		ArchiveChanSize:     envIntOrDefault("FAIRDECK_ARCHIVE_CHAN_SIZE", 1024),
		EventChanSize:       envIntOrDefault("FAIRDECK_EVENT_CHAN_SIZE", 4096),
		ArchiveBatchSize:    envIntOrDefault("FAIRDECK_ARCHIVE_BATCH_SIZE", 50),
		ArchiveFlushTimeout: 250 * time.Millisecond,
		HTTPAddr:            envOrDefault("FAIRDECK_HTTP_ADDR", ":8080"),
		GRPCAddr:            envOrDefault("FAIRDECK_GRPC_ADDR", ":9090"),
		MetricsAddr:         envOrDefault("FAIRDECK_METRICS_ADDR", ":9091"),
		MigrationsDir:       envOrDefault("FAIRDECK_MIGRATIONS_DIR", "migrations"),
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("INFO: FairDeck starting...")

	cfg := DefaultConfig()

	// --- Context with graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// --- Observability ---
	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker()

	// --- Postgres (optional) ---
	var db *sql.DB
	if cfg.PostgresDSN == "" {
		log.Println("WARN: FAIRDECK_POSTGRES_DSN not set, round archive disabled")
	} else {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("FATAL: postgres open: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("FATAL: postgres ping: %v", err)
		}
		log.Println("INFO: Postgres connected")

		migrator := persistence.NewMigrator(db, cfg.MigrationsDir)
		if err := migrator.Up(ctx); err != nil {
			log.Fatalf("FATAL: run migrations: %v", err)
		}
		log.Println("INFO: migrations applied")
	}

	// --- NATS (optional) ---
	var publisher *events.Publisher
	var eventChan chan events.RoundEvent
	if cfg.NATSURL == "" {
		log.Println("WARN: FAIRDECK_NATS_URL not set, round event publishing disabled")
	} else {
		nc, js, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("FATAL: nats connect: %v", err)
		}
		defer nc.Close()
		log.Println("INFO: NATS connected")

		if err := events.EnsureRoundStream(ctx, js); err != nil {
			log.Fatalf("FATAL: ensure round stream: %v", err)
		}

		eventChan = make(chan events.RoundEvent, cfg.EventChanSize)
		publisher = events.NewPublisher(js, eventChan)
	}

	// --- Archive channels ---
	// The game emits CompletedRound; the worker consumes RoundRow. The
	// bridge between them does the CBOR encoding off the action path.
	var completedChan chan game.CompletedRound
	var rowChan chan persistence.RoundRow
	if db != nil {
		completedChan = make(chan game.CompletedRound, cfg.ArchiveChanSize)
		rowChan = make(chan persistence.RoundRow, cfg.ArchiveChanSize)
	}

	// --- Game service ---
	registry := chain.NewLocalRegistry()
	svc := game.NewService(registry, metrics, completedChan, eventChan)

	// --- Servers ---
	var reader *persistence.RoundReader
	if db != nil {
		reader = persistence.NewRoundReader(db)
	}
	httpServer := server.NewHTTPServer(cfg.HTTPAddr, svc, reader, healthChecker, metrics)
	grpcServer := server.NewGRPCServer(cfg.GRPCAddr)

	// --- Start goroutines ---
	errChan := make(chan error, 8)

	// 1. Archive worker + bridge
	if db != nil {
		worker := persistence.NewArchiveWorker(db, rowChan, cfg.ArchiveBatchSize, cfg.ArchiveFlushTimeout, metrics)
		go func() {
			errChan <- worker.Run(ctx)
		}()
		go func() {
			bridgeCompletedRounds(ctx, completedChan, rowChan)
		}()
	}

	// 2. Round event publisher
	if publisher != nil {
		go func() {
			errChan <- publisher.Run(ctx)
		}()
	}

	// 3. HTTP API server
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	// 4. gRPC health server
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	// 5. Prometheus metrics server
	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metricsMux,
		}
		go func() {
			<-ctx.Done()
			shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			metricsServer.Shutdown(shutCtx)
		}()
		log.Printf("INFO: Metrics server listening on %s/metrics", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	// Mark service as ready after all goroutines started
	healthChecker.SetReady(true)

	log.Printf("INFO: FairDeck ready (http=%s, grpc=%s, metrics=%s, archive=%v, events=%v)",
		cfg.HTTPAddr, cfg.GRPCAddr, cfg.MetricsAddr, db != nil, publisher != nil)

	// --- Wait for shutdown signal ---
	select {
	case sig := <-sigChan:
		log.Printf("INFO: received signal %s, shutting down...", sig)
	case err := <-errChan:
		log.Printf("ERROR: goroutine failed: %v, shutting down...", err)
	}

	// --- Graceful shutdown ---
	grpcServer.SetServing(false)
	healthChecker.SetReady(false)
	cancel()

	// Give the archive worker time to flush accepted rounds
	time.Sleep(500 * time.Millisecond)

	log.Println("INFO: FairDeck shutdown complete")
}

// bridgeCompletedRounds encodes settled rounds into archive rows:
// settlement package and fairness disclosure as canonical CBOR, plus a
// checksum over both for offline integrity checks.
func bridgeCompletedRounds(
	ctx context.Context,
	in <-chan game.CompletedRound,
	out chan<- persistence.RoundRow,
) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return

		case round, ok := <-in:
			if !ok {
				return
			}

			settlement, err := codec.Marshal(round.Package)
			if err != nil {
				log.Printf("ERROR: encode settlement for round %s: %v", round.RoundID, err)
				continue
			}
			reveal, err := codec.Marshal(round.FullReveal)
			if err != nil {
				log.Printf("ERROR: encode reveal for round %s: %v", round.RoundID, err)
				continue
			}
			sum := codec.Checksum(append(append([]byte(nil), settlement...), reveal...))

			row := persistence.RoundRow{
				RoundID:    round.RoundID,
				Player:     round.Player,
				DeckRoot:   round.Commitment.Root[:],
				HolePos:    round.Commitment.HolePos,
				Doubled:    round.Doubled,
				Split:      round.Split,
				Settlement: settlement,
				Reveal:     reveal,
				Checksum:   sum[:],
				FinishedAt: round.FinishedAt,
			}

			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
		}
	}
}

// --- Helpers ---

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var i int
	if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
		return defaultVal
	}
	return i
}
