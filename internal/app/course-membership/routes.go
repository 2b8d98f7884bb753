// Package coursemembership собирает HTTP-приложение: маршруты, сервисы и их зависимости.
package coursemembership

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	// Регистрация swagger-спецификации.
	_ "github.com/magabrotheeeer/course-membership/docs"

	"github.com/magabrotheeeer/course-membership/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/course-membership/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/course-membership/internal/http/handlers/course/progress"
	"github.com/magabrotheeeer/course-membership/internal/http/handlers/course/view"
	"github.com/magabrotheeeer/course-membership/internal/http/handlers/health"
	"github.com/magabrotheeeer/course-membership/internal/http/handlers/news/feed"
	"github.com/magabrotheeeer/course-membership/internal/http/handlers/payment/ipn"
	"github.com/magabrotheeeer/course-membership/internal/http/handlers/payment/paymentcreate"
	profileread "github.com/magabrotheeeer/course-membership/internal/http/handlers/profile/read"
	profileupdate "github.com/magabrotheeeer/course-membership/internal/http/handlers/profile/update"
	"github.com/magabrotheeeer/course-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-membership/internal/metrics"
	"github.com/magabrotheeeer/course-membership/internal/news"
	"github.com/magabrotheeeer/course-membership/internal/services/account"
	authservice "github.com/magabrotheeeer/course-membership/internal/services/auth"
	"github.com/magabrotheeeer/course-membership/internal/services/payment"
)

// Services собирает зависимости обработчиков.
type Services struct {
	Auth     *authservice.AuthService
	Account  *account.Service
	Invoices *payment.InvoiceService
	Applier  ipn.Applier
	News     *news.Service
	DB       health.Pinger

	IPNMetrics      *metrics.IPN
	IPNSecret       string
	SignatureHeader string

	Limiter  *rate.Limiter
	Gatherer prometheus.Gatherer
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	// Уведомления провайдера подписаны HMAC и не требуют JWT
	r.Post("/ipn", ipn.New(logger, s.Applier, s.IPNMetrics, s.IPNSecret, s.SignatureHeader).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))
			r.Post("/payment", paymentcreate.New(logger, s.Invoices).ServeHTTP)
			r.Get("/course", view.New(logger, s.Account).ServeHTTP)
			r.Post("/course/progress", progress.New(logger, s.Account).ServeHTTP)
			r.Get("/profile", profileread.New(logger, s.Account).ServeHTTP)
			r.Put("/profile", profileupdate.New(logger, s.Account).ServeHTTP)
			r.Get("/news", feed.New(logger, s.News).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
