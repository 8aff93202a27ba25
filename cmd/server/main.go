package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"rinknet/internal/account"
	"rinknet/internal/coach"
	"rinknet/internal/contact"
	"rinknet/internal/jwttoken"
	"rinknet/internal/moderation"
	"rinknet/internal/notify"
	"rinknet/internal/platform/config"
	"rinknet/internal/platform/httpserver"
	"rinknet/internal/platform/logger"
	"rinknet/internal/platform/metrics"
	platformredis "rinknet/internal/platform/redis"
	"rinknet/internal/player"
	"rinknet/internal/ratelimit"
	"rinknet/internal/subscription"
	"rinknet/internal/support"
	httptransport "rinknet/internal/transport/http"
	"rinknet/pkg/platform/audit"
)

// main wires dependencies and runs the server lifecycle. Business logic
// lives in the internal services; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores. A postgres DSN selects the durable stores; without one the
	// server runs entirely in memory for local development.
	var (
		accountStore   account.Store
		coachStore     coach.Store
		playerStore    player.Store
		subStore       subscription.Store
		contactStore   contact.Store
		modStore       moderation.Store
		supportStore   support.Store
		auditStore     audit.Store
		disputeThreads moderation.ThreadStore
		supportThreads moderation.ThreadStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		accountStore = account.NewPostgresStore(db)
		coachStore = coach.NewPostgresStore(db)
		playerStore = player.NewPostgresStore(db)
		subStore = subscription.NewPostgresStore(db)
		contactStore = contact.NewPostgresStore(db)
		modStore = moderation.NewPostgresStore(db)
		supportStore = support.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		disputeThreads = moderation.NewPostgresThreadStore(db, "dispute_messages")
		supportThreads = moderation.NewPostgresThreadStore(db, "support_replies")
		log.Info("using postgres stores")
	} else {
		accountStore = account.NewMemoryStore()
		coachStore = coach.NewMemoryStore()
		playerStore = player.NewMemoryStore()
		subStore = subscription.NewMemoryStore()
		contactStore = contact.NewMemoryStore()
		modStore = moderation.NewMemoryStore()
		supportStore = support.NewMemoryStore()
		auditStore = audit.NewInMemoryStore()
		disputeThreads = moderation.NewMemoryThreadStore()
		supportThreads = moderation.NewMemoryThreadStore()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	planCache := subscription.NewPlanCache(redisClient, 5*time.Minute, log)

	// AMQP is optional; without it notifications are dropped silently.
	var (
		notifier *notify.Publisher
		consumer *notify.Consumer
	)
	if cfg.AMQPURL != "" {
		conn, err := notify.Connect(cfg.AMQPURL, 5, 2*time.Second)
		if err != nil {
			return err
		}
		defer conn.Close()
		ch, err := notify.SetupChannel(conn, notify.Bindings())
		if err != nil {
			return err
		}
		notifier = notify.NewPublisher(ch)
		consumer = notify.NewConsumer(ch, &notify.LogDeliverer{Logger: log}, log)
	} else {
		log.Warn("no AMQP URL configured, notifications disabled")
	}

	auditPub := audit.NewPublisher(auditStore, audit.WithAsyncBuffer(256))
	defer auditPub.Close()

	// Services.
	coachSvc := coach.NewService(coachStore,
		coach.WithLogger(log),
		coach.WithAuditPublisher(auditPub))

	accountSvc := account.NewService(accountStore,
		account.WithLogger(log),
		account.WithCoachLookup(coachStore))

	subSvc := subscription.NewService(subStore, playerStore, &subscription.StubProvider{},
		subscription.WithLogger(log),
		subscription.WithMetrics(m),
		subscription.WithAuditPublisher(auditPub),
		subscription.WithPlanCache(planCache),
		subscription.WithCheckoutURLs(cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL))

	pairs := &pairChecker{}
	playerSvc := player.NewService(playerStore, subSvc, subSvc,
		player.WithLogger(log),
		player.WithAuditPublisher(auditPub),
		player.WithPairChecker(pairs),
		player.WithContactResolver(accountSvc))

	contactOpts := []contact.Option{
		contact.WithLogger(log),
		contact.WithMetrics(m),
		contact.WithAuditPublisher(auditPub),
		contact.WithReRequests(cfg.AllowReRequest),
	}
	if notifier != nil {
		contactOpts = append(contactOpts, contact.WithNotifier(notifier))
	}
	contactSvc := contact.NewService(contactStore, accountSvc, coachSvc, playerSvc, subSvc, contactOpts...)
	pairs.contacts = contactSvc

	modOpts := []moderation.Option{
		moderation.WithLogger(log),
		moderation.WithMetrics(m),
		moderation.WithAuditPublisher(auditPub),
	}
	if notifier != nil {
		modOpts = append(modOpts, moderation.WithNotifier(notifier))
	}
	modSvc := moderation.NewService(modStore, disputeThreads, coachSvc, playerSvc, subSvc, modOpts...)

	supportSvc := support.NewService(supportStore, supportThreads,
		support.WithLogger(log))

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "rinknet", "rinknet-api")

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.New(cfg.RateLimitPerMinute, time.Minute)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		Validator:      jwttoken.NewJWTServiceAdapter(jwtSvc),
		RateLimit:      limiter,
		Accounts:       accountSvc,
		Subscriptions:  subscription.NewHandler(subSvc, log),
		Players:        player.NewHandler(playerSvc, log),
		Coaches:        coach.NewHandler(coachSvc, modSvc, log),
		Contacts:       contact.NewHandler(contactSvc, log),
		Moderation:     moderation.NewHandler(modSvc, log),
		Support:        support.NewHandler(supportSvc, log),
		RequestTimeout: 30 * time.Second,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting rinknet server", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(gctx, notify.Bindings())
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
