package engine

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// InitializeSchedules starts the cron jobs: the document watch and the render log
// retention. The returned cron is running; stop it on shutdown.
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	serverConfig := serverHandler.ServerConfig

	c := cron.New()
	if serverConfig.WatchInterval > 0 {
		var watchJob cron.Job
		watchJob = cron.FuncJob(serverHandler.documentWatchJob)
		watchJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(watchJob) //ensure we don't reopen twice at once
		if _, err := c.AddJob(fmt.Sprintf("@every %ds", serverConfig.WatchInterval), watchJob); err != nil {
			Logger.Error("Failed to add document watch job", "error", err)
		} else {
			Logger.Info("Adding document watch job", "interval_seconds", serverConfig.WatchInterval)
		}
	}

	if serverHandler.DB != nil && serverConfig.RenderLogHours > 0 {
		var retentionJob cron.Job
		retentionJob = cron.FuncJob(serverHandler.renderLogRetentionJob)
		retentionJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(retentionJob)
		if _, err := c.AddJob("@hourly", retentionJob); err != nil {
			Logger.Error("Failed to add render log retention job", "error", err)
		} else {
			Logger.Info("Adding render log retention job", "retention_hours", serverConfig.RenderLogHours)
		}
	}
	c.Start()
	return c
}

// documentWatchJob reopens the document when it appears or its modification time changes
func (serverHandler *ServerHandler) documentWatchJob() {
	// Add panic recovery to prevent entire application crash
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in document watch job", "panic", r)
		}
	}()

	path := serverHandler.ServerConfig.DocumentPath
	info, err := os.Stat(path)
	if err != nil {
		Logger.Debug("Document not available", "path", path, "error", err)
		return
	}

	doc := serverHandler.currentDocument()
	if doc != nil && doc.path == path && info.ModTime().Equal(doc.modTime) {
		return
	}

	Logger.Info("Document changed on disk, reopening", "path", path, "modTime", info.ModTime())
	if err := serverHandler.OpenDocument(); err != nil {
		Logger.Error("Failed to reopen document", "path", path, "error", err)
	}
}

// renderLogRetentionJob deletes render records past the retention window
func (serverHandler *ServerHandler) renderLogRetentionJob() {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in render log retention job", "panic", r)
		}
	}()

	retention := time.Duration(serverHandler.ServerConfig.RenderLogHours) * time.Hour
	deleted, err := serverHandler.DB.DeleteOldRenders(retention)
	if err != nil {
		Logger.Error("Failed to delete old render records", "error", err)
		return
	}
	Logger.Info("Render log cleanup finished", "deleted", deleted, "retention", retention)
}
