package middleware

import (
	"net/http"

	"github.com/benvon/project-assistant/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	defaultRatelimitRate = "100-M"
	ratelimitPrefix      = "project_assistant_ratelimit"
)

// RateLimit returns ulule/limiter middleware backed by Redis. rate uses limiter's
// formatted syntax ("100-M"). Authenticated callers are limited per email, others per IP.
func RateLimit(redisClient *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = defaultRatelimitRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: ratelimitPrefix, MaxRetry: limiter.DefaultMaxRetry})
	if err != nil {
		return nil, err
	}
	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(rateLimitKey))
	return mw.Handler, nil
}

func rateLimitKey(r *http.Request) string {
	if user := request.UserFromContext(r); user != nil && user.Email != "" {
		return "user:" + user.Email
	}
	return "ip:" + request.ClientIP(r)
}
