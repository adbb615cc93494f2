package middleware

import "github.com/gin-gonic/gin"

const (
	cacheHitKey    = "cache_hit"
	cacheHeaderKey = "X-Cache"
)

// SetCacheHit marks whether the response is served from cache. Call it before writing the body.
func SetCacheHit(c *gin.Context, hit bool) {
	c.Set(cacheHitKey, hit)
	if hit {
		c.Header(cacheHeaderKey, "HIT")
		return
	}
	c.Header(cacheHeaderKey, "MISS")
}

// CacheHit reports the value recorded by SetCacheHit.
func CacheHit(c *gin.Context) bool {
	return c.GetBool(cacheHitKey)
}
