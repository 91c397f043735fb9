package cache

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/stories-client/internal/utils/response"
)

// Stats describes what the client keeps in Redis
type Stats struct {
	RedisConnected  bool     `json:"redis_connected"`
	CollectionTTLMs int64    `json:"collection_ttl_ms"`
	RateLimitKeys   []string `json:"rate_limit_keys_sample"`
	KeyCount        int64    `json:"total_keys"`
}

var clearPatterns = map[string]string{
	"stories":    "stories:*",
	"rate_limit": "rate_limit:*",
}

// GetStats reports cache and rate limiter usage
func GetStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := Stats{RedisConnected: true, CollectionTTLMs: -1}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		if ttl, err := redisClient.PTTL(ctx, CollectionKey).Result(); err == nil && ttl > 0 {
			stats.CollectionTTLMs = ttl.Milliseconds()
		}

		if keys, err := redisClient.Keys(ctx, clearPatterns["rate_limit"]).Result(); err == nil {
			if len(keys) > 10 {
				keys = keys[:10]
			}
			stats.RateLimitKeys = keys
		}

		if n, err := redisClient.DBSize(ctx).Result(); err == nil {
			stats.KeyCount = n
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// Clear deletes cached stories (default), rate limit buckets, or both with
// ?type=all
func Clear(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var patterns []string
		switch kind := r.URL.Query().Get("type"); kind {
		case "all":
			patterns = []string{clearPatterns["stories"], clearPatterns["rate_limit"]}
		case "rate_limit":
			patterns = []string{clearPatterns["rate_limit"]}
		default:
			patterns = []string{clearPatterns["stories"]}
		}

		var deleted int64
		for _, pattern := range patterns {
			keys, err := redisClient.Keys(ctx, pattern).Result()
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			if len(keys) == 0 {
				continue
			}
			n, err := redisClient.Del(ctx, keys...).Result()
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			deleted += n
		}

		result := map[string]interface{}{
			"patterns":     patterns,
			"deleted_keys": deleted,
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared", result))
	}
}
