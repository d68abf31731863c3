package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/agent"
	"axiapac.com/punchclock/web/handlers"
	"axiapac.com/punchclock/web/middlewares"
)

const APIPrefix = "/api/agent/v1"

func NewRouter(svc *agent.Service, secret []byte, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	handlers.Register(r.Group(APIPrefix), svc, secret)
	return r
}
