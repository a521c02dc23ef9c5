package engine

import (
	"fmt"

	"github.com/drummonds/pagestrip/config"
	"github.com/drummonds/pagestrip/engine/pdfrenderer"
	"github.com/drummonds/pagestrip/engine/renderqueue"
)

// StartupChecks performs all the checks to make sure everything works, then opens the document
func (serverHandler *ServerHandler) StartupChecks() error {
	serverConfig := serverHandler.ServerConfig
	if err := rendererChecks(serverConfig); err != nil {
		return err
	}
	if err := queueChecks(serverConfig); err != nil {
		return err
	}
	if err := config.CheckDocument(serverConfig.DocumentPath, Logger); err != nil {
		Logger.Warn("Document not available yet, the watch job will open it when it appears", "path", serverConfig.DocumentPath)
		return err
	}
	if err := serverHandler.OpenDocument(); err != nil {
		Logger.Error("Failed to open document", "path", serverConfig.DocumentPath, "error", err)
		return err
	}
	return nil
}

// rendererChecks ensures the configured backend is one we can open documents with
func rendererChecks(serverConfig config.ServerConfig) error {
	switch serverConfig.RendererBackend {
	case "", pdfrenderer.BackendPDFium:
		Logger.Info("Using PDFium renderer (WebAssembly)")
	case pdfrenderer.BackendFitz:
		Logger.Info("Using MuPDF renderer (go-fitz)")
	default:
		Logger.Error("Unknown renderer configured", "renderer", serverConfig.RendererBackend)
		return fmt.Errorf("%w: %q", pdfrenderer.ErrUnknownBackend, serverConfig.RendererBackend)
	}
	return nil
}

// queueChecks ensures the render queue settings are usable
func queueChecks(serverConfig config.ServerConfig) error {
	mode, err := renderqueue.ParseMode(serverConfig.QueueMode)
	if err != nil {
		Logger.Error("Unknown queue mode configured", "mode", serverConfig.QueueMode)
		return err
	}
	if serverConfig.QueueCapacity < 1 {
		Logger.Error("Queue capacity must be positive", "capacity", serverConfig.QueueCapacity)
		return fmt.Errorf("queue capacity %d must be positive", serverConfig.QueueCapacity)
	}
	Logger.Info("Render queue configured", "mode", mode, "capacity", serverConfig.QueueCapacity)
	return nil
}
