package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/sundarv/expense-bot/internal/ocr"
	"go.uber.org/zap"
)

// PhotoJob is one receipt image queued for recognition.
type PhotoJob struct {
	ID       string // correlation id, logged end to end
	ChatID   string
	Data     []byte
	MimeType string
}

// PhotoResult is the outcome of processing one PhotoJob. Lines is nil
// when Err is set; ocr.ErrEmptyText marks an unreadable bill as opposed
// to an internal failure.
type PhotoResult struct {
	Job   PhotoJob
	Lines []string
	Err   error
}

// ResultHandler consumes completed photo jobs.
type ResultHandler func(ctx context.Context, res PhotoResult)

// PhotoPool runs OCR off the dispatch path: inbound handlers enqueue
// jobs and return immediately, keeping other conversations responsive
// while recognition runs.
type PhotoPool struct {
	engine  ocr.Engine
	size    int
	jobs    chan PhotoJob
	handler ResultHandler
	logger  *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewPhotoPool creates a pool of size workers with a queue of queueLen
// pending jobs.
func NewPhotoPool(engine ocr.Engine, size, queueLen int, logger *zap.Logger) *PhotoPool {
	if size <= 0 {
		size = 2
	}
	if queueLen <= 0 {
		queueLen = 16
	}
	return &PhotoPool{
		engine: engine,
		size:   size,
		jobs:   make(chan PhotoJob, queueLen),
		logger: logger,
	}
}

// SetHandler installs the result consumer. Must be called before Start.
func (p *PhotoPool) SetHandler(h ResultHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Name implements Worker.
func (p *PhotoPool) Name() string { return "photo-pool" }

// Start implements Worker, launching the recognition goroutines.
func (p *PhotoPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("photo pool already started")
	}
	if p.handler == nil {
		return fmt.Errorf("photo pool has no result handler")
	}

	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
	p.started = true
	return nil
}

// Stop implements Worker, waiting for in-flight jobs to finish.
func (p *PhotoPool) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Submit enqueues a job. It fails fast when the queue is full instead
// of blocking the dispatch loop.
func (p *PhotoPool) Submit(job PhotoJob) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return fmt.Errorf("photo queue full, dropping job %s", job.ID)
	}
}

func (p *PhotoPool) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			res := p.process(ctx, job)
			p.handler(ctx, res)
		}
	}
}

func (p *PhotoPool) process(ctx context.Context, job PhotoJob) PhotoResult {
	p.logger.Info("Processing receipt photo",
		zap.String("job_id", job.ID),
		zap.String("chat_id", job.ChatID),
		zap.Int("bytes", len(job.Data)))

	normalized, err := ocr.NormalizeImage(job.Data, job.MimeType)
	if err != nil {
		p.logger.Error("Failed to normalize image",
			zap.String("job_id", job.ID),
			zap.Error(err))
		return PhotoResult{Job: job, Err: fmt.Errorf("failed to normalize image: %w", err)}
	}

	lines, err := p.engine.Recognize(ctx, normalized)
	if err != nil {
		return PhotoResult{Job: job, Err: err}
	}

	return PhotoResult{Job: job, Lines: lines}
}
