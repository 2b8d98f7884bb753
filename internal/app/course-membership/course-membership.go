package coursemembership

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/course-membership/internal/cache"
	"github.com/magabrotheeeer/course-membership/internal/config"
	"github.com/magabrotheeeer/course-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/metrics"
	"github.com/magabrotheeeer/course-membership/internal/migrations"
	"github.com/magabrotheeeer/course-membership/internal/news"
	"github.com/magabrotheeeer/course-membership/internal/paymentprovider"
	"github.com/magabrotheeeer/course-membership/internal/rabbitmq"
	"github.com/magabrotheeeer/course-membership/internal/services/account"
	authservice "github.com/magabrotheeeer/course-membership/internal/services/auth"
	"github.com/magabrotheeeer/course-membership/internal/services/payment"
	"github.com/magabrotheeeer/course-membership/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App держит HTTP-сервер и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	// События об оплате публикуются, только если брокер настроен
	var publisher payment.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, err
		}
		app.ch = ch
		publisher = rabbitmq.NewPublisher(ch, rabbitmq.NotificationsExchange)
	} else {
		logger.Warn("rabbitmq url is empty, payment notifications are disabled")
	}
	if cfg.IPNSecret == "" {
		logger.Warn("ipn secret is empty, all payment notifications will be rejected")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	provider := paymentprovider.NewClient(cfg.PaymentsAPIKey, cfg.PaymentsBaseURL, cfg.PaymentsTimeout)
	newsClient := news.NewClient(cfg.NewsAPIKey, cfg.NewsBaseURL, cfg.NewsTimeout)

	services := Services{
		Auth:    authservice.NewAuthService(db, jwtMaker),
		Account: account.NewService(db, cfg.CourseVideos(), logger),
		Invoices: payment.NewInvoiceService(provider, db, payment.URLs{
			IPNCallback: cfg.CallbackURL,
			Success:     cfg.SuccessURL,
			Cancel:      cfg.CancelURL,
		}, logger),
		Applier:         payment.NewApplier(db, publisher, logger),
		News:            news.NewService(newsClient, cacheRedis, cfg.NewsQuery, cfg.NewsTTL, logger),
		DB:              db,
		IPNMetrics:      metrics.NewIPN(reg),
		IPNSecret:       cfg.IPNSecret,
		SignatureHeader: cfg.SignatureHeader,
		Limiter:         rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		Gatherer:        reg,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает сервер и останавливает его по отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
