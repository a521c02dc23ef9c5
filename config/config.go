package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP     string
	ListenAddrPort   string
	DocumentPath     string // absolute path to the PDF being served
	RendererBackend  string // pdfium or fitz
	DatabaseType     string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string `json:"-"`
	DatabaseDbname   string
	DatabaseSslmode  string
	WatchInterval    int // seconds between document change checks, 0 disables
	RenderLogHours   int // hours of render records to keep
	QueueConfig
	StripConfig
}

// QueueConfig stores the render queue settings, fixed for the life of a document
type QueueConfig struct {
	QueueCapacity int
	QueueMode     string
}

// StripConfig stores the thumbnail strip layout
type StripConfig struct {
	ThumbWidth    int
	ThumbHeight   int
	ThumbPadding  int
	StripMaxWidth int
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// LoadEnv loads .env and config.env into the environment, silently ignoring missing files.
// Variables already set are not overridden.
func LoadEnv(filenames ...string) {
	if len(filenames) == 0 {
		filenames = []string{".env", "config.env"}
	}
	for _, filename := range filenames {
		_ = godotenv.Load(filename)
	}
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	LoadEnv()

	logger := SetupLogging()
	Logger = logger

	serverConfigLive := LoadServerConfig()

	fmt.Println("\n========================================")
	fmt.Println("   pagestrip - PDF thumbnail strip server")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
	if serverConfigLive.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Document: %s (%s)\n", serverConfigLive.DocumentPath, serverConfigLive.RendererBackend)

	logger.Info("Configuration loaded",
		"document", serverConfigLive.DocumentPath,
		"renderer", serverConfigLive.RendererBackend,
		"queueCapacity", serverConfigLive.QueueCapacity,
		"queueMode", serverConfigLive.QueueMode,
		"database", serverConfigLive.DatabaseType)

	return serverConfigLive, logger
}

// LoadServerConfig reads the server settings from the environment
func LoadServerConfig() ServerConfig {
	serverConfigLive := ServerConfig{}

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Document configuration
	documentPath := filepath.ToSlash(getEnv("DOCUMENT_PATH", "document.pdf"))
	documentPathAbs, err := filepath.Abs(documentPath)
	if err != nil {
		logWarn("Failed creating absolute path for document", "path", documentPath, "error", err)
		documentPathAbs = documentPath
	}
	serverConfigLive.DocumentPath = documentPathAbs
	serverConfigLive.RendererBackend = strings.ToLower(getEnv("RENDERER", "pdfium"))
	serverConfigLive.WatchInterval = getEnvInt("DOCUMENT_WATCH_INTERVAL", 10)

	// Queue configuration
	serverConfigLive.QueueCapacity = getEnvInt("QUEUE_CAPACITY", 4)
	if serverConfigLive.QueueCapacity < 1 {
		logWarn("Queue capacity must be positive, using default", "configured", serverConfigLive.QueueCapacity)
		serverConfigLive.QueueCapacity = 4
	}
	serverConfigLive.QueueMode = strings.ToLower(getEnv("QUEUE_MODE", "lifo"))

	// Strip configuration
	serverConfigLive.ThumbWidth = getEnvInt("THUMB_WIDTH", 60)
	serverConfigLive.ThumbHeight = getEnvInt("THUMB_HEIGHT", 80)
	serverConfigLive.ThumbPadding = getEnvInt("THUMB_PADDING", 15)
	serverConfigLive.StripMaxWidth = getEnvInt("STRIP_MAX_WIDTH", 1080)

	// Render log configuration
	serverConfigLive.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	serverConfigLive.DatabaseHost = getEnv("DATABASE_HOST", "localhost")
	serverConfigLive.DatabasePort = getEnv("DATABASE_PORT", "5432")
	serverConfigLive.DatabaseUser = getEnv("DATABASE_USER", "pagestrip")
	serverConfigLive.DatabasePassword = getEnv("DATABASE_PASSWORD", "")
	serverConfigLive.DatabaseDbname = getEnv("DATABASE_NAME", ":memory:")
	serverConfigLive.DatabaseSslmode = getEnv("DATABASE_SSLMODE", "disable")
	serverConfigLive.RenderLogHours = getEnvInt("RENDER_LOG_RETENTION", 24)

	return serverConfigLive
}

// SetupLogging configures the application logger from LOG_LEVEL, LOG_OUTPUT, LOG_FILE and LOG_JSON
func SetupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "debug")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pagestrip.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	if getEnvBool("LOG_JSON", false) {
		return slog.New(slog.NewJSONHandler(logWriter, handlerOptions))
	}
	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

// CheckDocument verifies that the configured document exists and is a regular file
func CheckDocument(documentPath string, logger *slog.Logger) error {
	info, err := os.Stat(documentPath)
	if err != nil {
		logger.Error("Cannot find document at location specified", "path", documentPath)
		return err
	}
	if info.IsDir() {
		logger.Error("Document path is a directory", "path", documentPath)
		return fmt.Errorf("%s is a directory", documentPath)
	}
	logger.Debug("Document found", "path", documentPath, "size", info.Size())
	return nil
}

func logWarn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}
