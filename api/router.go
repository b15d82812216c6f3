package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRouter(deps *Dependencies) *gin.Engine {
	h := NewHandler(deps)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(h.logger))

	r.GET("/health", h.Health)

	r.GET("/", h.RemoveBackground)
	r.GET("/api/remove-bg", h.RemoveBackground)

	return r
}
