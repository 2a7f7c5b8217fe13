package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		handled, _ := s.TransferSummary()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"dest":    s.cfg.Dest,
			"handled": handled,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/transfers/last", func(c *gin.Context) {
		st, ok := s.LastStatus()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no transfer yet"})
			return
		}
		c.JSON(http.StatusOK, st)
	})
}
