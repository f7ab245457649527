package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/infra"
	"github.com/lalored20/lavaseco-app-sub000/internal/remote"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// The local store and Redis decide readiness; the central store being down is
// reported but does NOT degrade the terminal — working offline is the normal
// case, not a failure.
func Health(localDB *gorm.DB, rdb *redis.Client, remoto remote.Store, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		localStatus := "connected"
		sqlDB, err := localDB.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			localStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		remoteStatus := "connected"
		if remoto.Ping(ctx) != nil {
			remoteStatus = "offline"
		}

		status := http.StatusOK
		if localStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":      status == http.StatusOK,
			"local":   localStatus,
			"redis":   redisStatus,
			"central": remoteStatus,
			"circuit": cb.State().String(),
		})
	}
}
