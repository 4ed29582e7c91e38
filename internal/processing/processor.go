package processing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vidmill/videos-ms-go/internal/broadcast"
	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// ErrAlreadyRunning is returned when a second run is requested for a video
// that already has an active one.
var ErrAlreadyRunning = errors.New("processing: run already active for this video")

// Repository is the narrow persistence surface of the state machine. Every
// write is an atomic, status-guarded field update; sql.ErrNoRows from a
// guarded update means the record is gone or already terminal, and the run
// stops silently.
type Repository interface {
	GetByID(ctx context.Context, id db.UUID) (*model.Video, error)
	SetProcessing(ctx context.Context, id db.UUID) error
	SetDuration(ctx context.Context, id db.UUID, seconds float64) error
	SetProgress(ctx context.Context, id db.UUID, percent int) error
	SetCompleted(ctx context.Context, id db.UUID, verdict model.Sensitivity) error
	SetFailed(ctx context.Context, id db.UUID, reason string) error
}

// CacheInvalidator drops cached video details after a persisted change.
type CacheInvalidator interface {
	DeleteVideoDetails(ctx context.Context, id db.UUID) error
	DeleteEtagVideoDetails(ctx context.Context, id db.UUID) error
}

type Config struct {
	// TickInterval is the cadence of the progress loop.
	TickInterval time.Duration
	// Step is the progress increment per tick.
	Step int
	// AnalysisThreshold is the progress percentage past which the phase
	// message switches from transcoding to sensitivity analysis.
	AnalysisThreshold int
	// MaxRuntime bounds a single run; past it the video is marked failed.
	MaxRuntime time.Duration
}

func DefaultConfig() Config {
	return Config{
		TickInterval:      time.Second,
		Step:              10,
		AnalysisThreshold: 70,
		MaxRuntime:        10 * time.Minute,
	}
}

// Processor drives a video from pending to a terminal state, persisting
// progress and broadcasting events on the way. At most one run per video id
// is active at a time; each run holds a cancellation handle that deletion
// and shutdown use.
type Processor struct {
	repo       Repository
	bus        broadcast.Broadcaster
	prober     DurationProber
	classifier Classifier
	cache      CacheInvalidator
	cfg        Config

	mu     sync.Mutex
	active map[db.UUID]context.CancelFunc
	wg     sync.WaitGroup
}

func New(repo Repository, bus broadcast.Broadcaster, prober DurationProber, classifier Classifier, cache CacheInvalidator, cfg Config) *Processor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Step <= 0 {
		cfg.Step = 10
	}
	if cfg.AnalysisThreshold <= 0 {
		cfg.AnalysisThreshold = 70
	}
	if cfg.MaxRuntime <= 0 {
		cfg.MaxRuntime = 10 * time.Minute
	}
	return &Processor{
		repo:       repo,
		bus:        bus,
		prober:     prober,
		classifier: classifier,
		cache:      cache,
		cfg:        cfg,
		active:     make(map[db.UUID]context.CancelFunc),
	}
}

// LaunchProcessing starts a run on a background goroutine, detached from the
// request context. It satisfies the uploader's Launcher port.
func (p *Processor) LaunchProcessing(ctx context.Context, id db.UUID) error {
	runCtx, err := p.acquire(id)
	if err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release(id)
		if err := p.run(runCtx, id); err != nil {
			log.Printf("processing run for video #%s ended with error: %v", id, err)
		}
	}()
	return nil
}

// Run executes a run synchronously. The worker handler uses it so asynq sees
// the task finish when the run does.
func (p *Processor) Run(ctx context.Context, id db.UUID) error {
	runCtx, err := p.acquire(id)
	if err != nil {
		return err
	}
	p.wg.Add(1)
	defer p.wg.Done()
	defer p.release(id)

	stop := context.AfterFunc(ctx, func() {
		p.Cancel(id)
	})
	defer stop()

	return p.run(runCtx, id)
}

// Cancel aborts the active run for the given video, if any. The aborted run
// stops between ticks without writing a terminal state.
func (p *Processor) Cancel(id db.UUID) {
	p.mu.Lock()
	cancel, ok := p.active[id]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// Shutdown cancels every active run and waits for them to stop.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	for _, cancel := range p.active {
		cancel()
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) acquire(id db.UUID) (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.active[id]; ok {
		return nil, ErrAlreadyRunning
	}
	runCtx, cancel := context.WithTimeout(context.Background(), p.cfg.MaxRuntime)
	p.active[id] = cancel
	return runCtx, nil
}

func (p *Processor) release(id db.UUID) {
	p.mu.Lock()
	cancel, ok := p.active[id]
	delete(p.active, id)
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

func (p *Processor) run(ctx context.Context, id db.UUID) error {
	v, err := p.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// deleted before we got going
			return nil
		}
		return err
	}
	if v.Status.IsTerminal() {
		return nil
	}

	if err := p.repo.SetProcessing(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return p.fail(ctx, id, fmt.Errorf("enter processing: %w", err))
	}
	p.publish(ctx, id, broadcast.Event{
		VideoID:  id.String(),
		Progress: 0,
		Status:   model.VideoStatusProcessing,
		Message:  "Queued for processing...",
	})

	duration, err := p.prober.Duration(ctx, v.AssetKey)
	if err != nil {
		return p.fail(ctx, id, fmt.Errorf("metadata extraction: %w", err))
	}
	if err := p.repo.SetDuration(ctx, id, duration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return p.fail(ctx, id, fmt.Errorf("persist duration: %w", err))
	}

	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()

	progress := 0
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return p.fail(context.WithoutCancel(ctx), id, fmt.Errorf("run exceeded max runtime: %w", ctx.Err()))
			}
			// cancelled: the record is being deleted, stop without a terminal write
			log.Printf("processing run for video #%s cancelled", id)
			return nil
		case <-ticker.C:
			progress += p.cfg.Step
			if progress > 100 {
				return p.complete(ctx, id)
			}
			if err := p.repo.SetProgress(ctx, id, progress); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil
				}
				return p.fail(ctx, id, fmt.Errorf("persist progress: %w", err))
			}

			message := "Transcoding video..."
			if progress > p.cfg.AnalysisThreshold {
				message = "Analyzing content sensitivity..."
			}
			p.publish(ctx, id, broadcast.Event{
				VideoID:  id.String(),
				Progress: progress,
				Status:   model.VideoStatusProcessing,
				Message:  message,
			})
		}
	}
}

func (p *Processor) complete(ctx context.Context, id db.UUID) error {
	verdict, err := p.classifier.Classify(ctx, id)
	if err != nil {
		return p.fail(ctx, id, fmt.Errorf("sensitivity classification: %w", err))
	}

	if err := p.repo.SetCompleted(ctx, id, verdict); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return p.fail(ctx, id, fmt.Errorf("persist completion: %w", err))
	}
	p.invalidate(ctx, id)

	message := "Processing complete. Video is Safe."
	if verdict.IsSafe != nil && !*verdict.IsSafe {
		message = "Processing complete. Content flagged."
	}
	p.publish(ctx, id, broadcast.Event{
		VideoID:     id.String(),
		Progress:    100,
		Status:      model.VideoStatusCompleted,
		Message:     message,
		Sensitivity: &verdict,
	})
	log.Printf("processing of video #%s completed", id)
	return nil
}

func (p *Processor) fail(ctx context.Context, id db.UUID, cause error) error {
	log.Printf("processing of video #%s failed: %v", id, cause)

	if err := p.repo.SetFailed(ctx, id, cause.Error()); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("could not mark video #%s as failed: %v", id, err)
		}
		return cause
	}
	p.invalidate(ctx, id)

	p.publish(ctx, id, broadcast.Event{
		VideoID: id.String(),
		Status:  model.VideoStatusFailed,
		Message: "Processing failed.",
	})
	return cause
}

func (p *Processor) publish(ctx context.Context, id db.UUID, ev broadcast.Event) {
	// best-effort; never abort a run because an observer is gone
	ctx = context.WithoutCancel(ctx)
	if err := p.bus.Publish(ctx, broadcast.VideoTopic(id.String()), ev); err != nil {
		log.Printf("publish on %q failed: %v", broadcast.VideoTopic(id.String()), err)
	}
	if err := p.bus.Publish(ctx, broadcast.TopicProcessingUpdates, ev); err != nil {
		log.Printf("publish on %q failed: %v", broadcast.TopicProcessingUpdates, err)
	}
}

func (p *Processor) invalidate(ctx context.Context, id db.UUID) {
	if err := p.cache.DeleteVideoDetails(ctx, id); err != nil {
		log.Printf("failed deleting details cache for video #%s: %v", id, err)
	}
	if err := p.cache.DeleteEtagVideoDetails(ctx, id); err != nil {
		log.Printf("failed deleting etag cache for video #%s: %v", id, err)
	}
}
