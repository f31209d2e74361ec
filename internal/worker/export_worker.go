package worker

import (
	"context"
	"sync"
	"time"

	"agrisense/internal/service"

	"go.uber.org/zap"
)

const DefaultExportInterval = time.Hour

// ExportWorker periodically writes an xlsx snapshot of the latest readings.
type ExportWorker struct {
	service  service.ExportService
	interval time.Duration
	limit    int
	logger   *zap.Logger

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

func NewExportWorker(service service.ExportService, interval time.Duration, limit int, logger *zap.Logger) *ExportWorker {
	if interval <= 0 {
		interval = DefaultExportInterval
	}
	return &ExportWorker{
		service:  service,
		interval: interval,
		limit:    limit,
		logger:   logger,
	}
}

func (w *ExportWorker) Name() string {
	return "export"
}

func (w *ExportWorker) Start() {
	w.mu.Lock()
	if w.stopChan != nil {
		w.mu.Unlock()
		return
	}
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	stop, done := w.stopChan, w.done
	w.mu.Unlock()

	w.logger.Info("Export worker started", zap.Duration("interval", w.interval))

	go w.run(stop, done)
}

func (w *ExportWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopChan == nil {
		return
	}

	close(w.stopChan)
	<-w.done
	w.stopChan = nil
	w.logger.Info("Export worker stopped")
}

func (w *ExportWorker) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.export()
		case <-stop:
			return
		}
	}
}

func (w *ExportWorker) export() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path, err := w.service.Export(ctx, "xlsx", w.limit)
	if err != nil {
		w.logger.Error("Export worker failed", zap.Error(err))
		return
	}
	w.logger.Info("Export snapshot written", zap.String("path", path))
}
