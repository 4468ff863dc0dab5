package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/garagebook/garagebook/libs/clock"
	"github.com/garagebook/garagebook/libs/config"
	"github.com/garagebook/garagebook/libs/db"
	"github.com/garagebook/garagebook/libs/events"
	"github.com/garagebook/garagebook/libs/httpx"
	"github.com/garagebook/garagebook/libs/kafkax"
	"github.com/garagebook/garagebook/libs/otelx"
	"github.com/garagebook/garagebook/libs/runtime"
	"github.com/garagebook/garagebook/services/reminder-service/internal/handlers"
	"github.com/garagebook/garagebook/services/reminder-service/internal/metrics"
	"github.com/garagebook/garagebook/services/reminder-service/internal/notify"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
	"github.com/garagebook/garagebook/services/reminder-service/internal/remind"
	"github.com/garagebook/garagebook/services/reminder-service/internal/scheduler"
	"github.com/garagebook/garagebook/services/reminder-service/internal/storage"
	"github.com/garagebook/garagebook/services/reminder-service/internal/triggers"
)

func main() {
	runtime.LoadDotenv()

	service := config.String("SERVICE_NAME", "reminder-service")
	port, err := config.Port("PORT", "8086")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	m := metrics.New("garagebook_reminders")
	clk := clock.Real{}

	outboxRepo := events.NewOutboxRepository()
	outboxPublisher := events.NewPublisher(pool, outboxRepo, logger, events.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	triggerRepo := triggers.NewRepository(pool)
	bookingRepo := storage.NewBookingRepository(pool)
	notifier := notify.NewOutboxNotifier(pool, outboxRepo)

	orchestrator := remind.NewOrchestrator(triggerRepo, clk, logger, m)
	reminderHandlers := remind.NewHandlers(bookingRepo, notifier, logger)

	worker := scheduler.NewWorker(triggerRepo, map[policy.Kind]scheduler.HandlerFunc{
		policy.Reminder24h: reminderHandlers.Handle24h,
		policy.Reminder1h:  reminderHandlers.Handle1h,
	}, clk, logger, m, scheduler.Config{
		PollEvery: config.Duration("REMINDER_POLL_EVERY", 10*time.Second),
		LockFor:   config.Duration("REMINDER_LOCK_FOR", 2*time.Minute),
		BatchSize: config.Int("REMINDER_BATCH_SIZE", 25),
	})
	go worker.Run(ctx)

	inboxRepo := events.NewInboxRepository(pool)
	consumerCfg := events.ConsumerConfig{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "reminder-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "booking.changed.v1"),
	}

	type bookingChanged struct {
		BookingID string `json:"booking_id"`
	}

	eventConsumer := events.NewConsumer(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
		var payload bookingChanged
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking.changed payload", "err", err)
			return nil
		}
		if payload.BookingID == "" {
			logger.Error("booking.changed event missing booking_id")
			return nil
		}

		detail, err := bookingRepo.FindByID(ctx, payload.BookingID)
		if err != nil {
			return err
		}
		if detail == nil {
			logger.Info("booking.changed for unknown booking, ignoring", "booking_id", payload.BookingID)
			return nil
		}
		orchestrator.ScheduleForBooking(ctx, &detail.Booking)
		return nil
	})
	go eventConsumer.Run(ctx)

	rateLimit := config.Int("RATE_LIMIT", 60)
	rateWindow := config.Duration("RATE_LIMIT_WINDOW", time.Minute)

	// Redis makes the limit shared across replicas; without it the in-memory
	// limiter covers single-instance deployments.
	var limitMW httpx.Middleware
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		limitMW = httpx.NewRedisRateLimiter(rdb, rateLimit, rateWindow, service).Middleware(logger, true)
	} else {
		limitMW = httpx.NewRateLimiter(rateLimit, rateWindow).Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.Handle("/metrics", promhttp.Handler())

	remindersHTTP := handlers.NewRemindersHandler(bookingRepo, orchestrator, logger)
	mux.Handle("POST /internal/bookings/{id}/reminders",
		limitMW(http.HandlerFunc(remindersHTTP.Reschedule)))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
	)
	handler = otelhttp.NewHandler(handler, "reminder")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
