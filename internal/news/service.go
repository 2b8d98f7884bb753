package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
)

const (
	cacheKey = "news:forex"
	// MaxArticles — сколько статей отдаётся клиенту.
	MaxArticles = 10
)

// Fetcher загружает статьи из внешнего источника.
type Fetcher interface {
	Everything(ctx context.Context, query string) ([]Article, error)
}

// Cache хранит ленту в одном ключе с временем жизни.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service отдаёт ленту из кэша, а при промахе загружает её и кладёт в кэш.
type Service struct {
	fetcher Fetcher
	cache   Cache
	query   string
	ttl     time.Duration
	log     *slog.Logger
}

// NewService создаёт сервис новостей.
func NewService(fetcher Fetcher, cache Cache, query string, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		query:   query,
		ttl:     ttl,
		log:     log,
	}
}

// Feed возвращает не более MaxArticles статей.
// Ошибки кэша не прерывают запрос: лента просто загружается заново.
func (s *Service) Feed(ctx context.Context) ([]Article, error) {
	const op = "services.news.Feed"
	log := s.log.With(sl.Op(op))

	var articles []Article
	found, err := s.cache.Get(ctx, cacheKey, &articles)
	if err != nil {
		log.Warn("failed to read news from cache", sl.Err(err))
	}
	if found {
		log.Debug("serving news from cache")
		return articles, nil
	}

	articles, err = s.fetcher.Everything(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(articles) > MaxArticles {
		articles = articles[:MaxArticles]
	}
	if err := s.cache.Set(ctx, cacheKey, articles, s.ttl); err != nil {
		log.Warn("failed to store news in cache", sl.Err(err))
	}
	log.Info("fetched news from newsapi", slog.Int("count", len(articles)))
	return articles, nil
}
