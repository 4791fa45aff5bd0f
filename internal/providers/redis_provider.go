package providers

import "github.com/go-redis/redis/v8"

// NewRedisClient builds the shared Redis client used by the rate limiter.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}
