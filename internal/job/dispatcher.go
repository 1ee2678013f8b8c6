package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxRecords = 1000

var (
	ErrQueueFull         = errors.New("job queue is full")
	ErrDispatcherStopped = errors.New("dispatcher is stopped")
	ErrNoHandler         = errors.New("no handler registered for job kind")
)

// Handler executes one kind of job.
type Handler interface {
	Run(ctx context.Context, job domain.Job) (domain.JobResult, error)
}

type HandlerFunc func(ctx context.Context, job domain.Job) (domain.JobResult, error)

func (f HandlerFunc) Run(ctx context.Context, job domain.Job) (domain.JobResult, error) {
	return f(ctx, job)
}

// Dispatcher is an in-process job queue drained by a fixed set of workers.
// A failed job is terminal; nothing is re-enqueued and nothing is
// de-duplicated.
type Dispatcher struct {
	tracer  trace.Tracer
	log     zerolog.Logger
	workers int
	queue   chan domain.Job
	now     func() time.Time

	mu         sync.RWMutex
	handlers   map[domain.JobKind]Handler
	records    map[uuid.UUID]*domain.JobRecord
	order      []uuid.UUID
	maxRecords int
	started    bool
	stopped    bool

	wg sync.WaitGroup
}

func NewDispatcher(tracer trace.Tracer, workers, queueSize int, log zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		tracer:     tracer,
		log:        log.With().Str("component", "dispatcher").Logger(),
		workers:    workers,
		queue:      make(chan domain.Job, queueSize),
		now:        time.Now,
		handlers:   make(map[domain.JobKind]Handler),
		records:    make(map[uuid.UUID]*domain.JobRecord),
		maxRecords: defaultMaxRecords,
	}
}

// Handle registers h for kind, replacing any previous handler.
func (d *Dispatcher) Handle(kind domain.JobKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Submit enqueues a job without blocking and returns its id.
func (d *Dispatcher) Submit(kind domain.JobKind, payload domain.JobPayload) (uuid.UUID, error) {
	job := domain.Job{
		ID:          uuid.New(),
		Kind:        kind,
		Payload:     payload,
		SubmittedAt: d.now().UTC(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return uuid.Nil, ErrDispatcherStopped
	}
	if _, ok := d.handlers[kind]; !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}

	select {
	case d.queue <- job:
	default:
		return uuid.Nil, ErrQueueFull
	}
	d.track(&domain.JobRecord{Job: job, Status: domain.JobSubmitted})

	d.log.Debug().
		Str("job_id", job.ID.String()).
		Str("kind", string(kind)).
		Str("trigger", string(payload.TriggerType)).
		Msg("job submitted")
	return job.ID, nil
}

// Status returns a copy of the job's record.
func (d *Dispatcher) Status(id uuid.UUID) (domain.JobRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.records[id]
	if !ok {
		return domain.JobRecord{}, false
	}
	return *rec, true
}

// Start launches the workers. Jobs run with ctx as their parent context.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.log.Info().Int("workers", d.workers).Msg("dispatcher started")
}

// Stop refuses new jobs, lets the workers drain what is queued and waits
// for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info().Msg("dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, n int) {
	defer d.wg.Done()
	for job := range d.queue {
		d.run(ctx, job)
	}
	d.log.Debug().Int("worker", n).Msg("worker exiting")
}

func (d *Dispatcher) run(ctx context.Context, job domain.Job) {
	ctx, span := d.tracer.Start(ctx, "dispatcher.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.kind", string(job.Kind)),
		attribute.String("job.trigger", string(job.Payload.TriggerType)),
	)

	d.mu.RLock()
	h := d.handlers[job.Kind]
	d.mu.RUnlock()

	started := d.now().UTC()
	d.update(job.ID, func(r *domain.JobRecord) {
		r.Status = domain.JobRunning
		r.StartedAt = &started
	})

	result, err := d.invoke(ctx, h, job)

	finished := d.now().UTC()
	logger := d.log.With().
		Str("job_id", job.ID.String()).
		Str("kind", string(job.Kind)).
		Dur("took", finished.Sub(started)).
		Logger()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.update(job.ID, func(r *domain.JobRecord) {
			r.Status = domain.JobFailed
			r.Error = err.Error()
			r.FinishedAt = &finished
		})
		logger.Error().Err(err).Msg("job failed")
		return
	}

	d.update(job.ID, func(r *domain.JobRecord) {
		r.Status = domain.JobCompleted
		r.Result = &result
		r.FinishedAt = &finished
	})
	logger.Info().Str("result", result.Message).Msg("job completed")
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, job domain.Job) (result domain.JobResult, err error) {
	if h == nil {
		return domain.JobResult{}, fmt.Errorf("%w: %s", ErrNoHandler, job.Kind)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return h.Run(ctx, job)
}

// track must be called with mu held.
func (d *Dispatcher) track(rec *domain.JobRecord) {
	d.records[rec.Job.ID] = rec
	d.order = append(d.order, rec.Job.ID)
	for len(d.order) > d.maxRecords {
		delete(d.records, d.order[0])
		d.order = d.order[1:]
	}
}

func (d *Dispatcher) update(id uuid.UUID, fn func(*domain.JobRecord)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.records[id]; ok {
		fn(rec)
	}
}
