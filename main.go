package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	config "github.com/drummonds/pagestrip/config"
	database "github.com/drummonds/pagestrip/database"
	engine "github.com/drummonds/pagestrip/engine"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	e := newEcho()
	serverHandler := &engine.ServerHandler{Echo: e, ServerConfig: serverConfig}

	// Setup render log database (sqlite or postgres)
	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db, err := database.NewRepository(serverConfig)
	if err != nil {
		Logger.Error("Render log unavailable, continuing without it", "error", err)
	} else {
		defer db.Close()
		serverHandler.DB = db //injecting the database into the handler for routes
		Logger.Info("Database setup complete")
	}

	Logger.Info("Running startup checks")
	if err := serverHandler.StartupChecks(); err != nil { //Run all the sanity checks
		Logger.Warn("Startup checks failed, serving without a document", "error", err)
	}
	defer serverHandler.CloseDocument()

	schedules := serverHandler.InitializeSchedules() //initialize all the cron jobs
	defer func() { <-schedules.Stop().Done() }()

	serverHandler.RegisterRoutes()

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return startServer(e, &serverConfig)
	})
	g.Go(func() error {
		<-gctx.Done()
		Logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		Logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	Logger.Info("Server stopped")
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Custom 404 handler for API endpoints
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound {
			// Return JSON for API endpoints
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}

		// For other errors, use default handler
		e.DefaultHTTPErrorHandler(err, c)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	// Request logging
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))
	return e
}

// startServer tries to start the server, moving to the next port if the configured one is in use
func startServer(e *echo.Echo, serverConfig *config.ServerConfig) error {
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)
		if serverConfig.ListenAddrPort != startPort {
			Logger.Warn("Starting on alternative port due to conflicts",
				"requested_port", startPort,
				"actual_port", serverConfig.ListenAddrPort)
		}

		err := e.Start(addr)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		if !isAddressInUse(err) {
			return fmt.Errorf("failed to start server: %w", err)
		}

		Logger.Warn("Port already in use, trying next port",
			"port", serverConfig.ListenAddrPort,
			"attempt", attempt+1,
			"max_attempts", maxRetries)

		// Increment port for next attempt
		portNum := 0
		fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
		portNum++
		serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum)
	}

	Logger.Error("Failed to find available port after maximum retries",
		"start_port", startPort,
		"end_port", serverConfig.ListenAddrPort,
		"max_retries", maxRetries)
	return fmt.Errorf("no free port in %d attempts from %s", maxRetries, startPort)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "address already in use")
}
