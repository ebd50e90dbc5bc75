package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/scholarpoint/scholarpoint/internal/config"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log.Level)

	svc := bootstrap(cfg)
	defer svc.shutdown()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Create router
	r := gin.New()
	registerRoutes(r, svc)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
