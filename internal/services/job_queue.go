package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"go.uber.org/zap"
)

var (
	ErrJobQueueIsFull = errors.New("job queue is full")
	ErrJobQueueClosed = errors.New("job queue is closed")
)

// Job is a unit of background work.
type Job func(ctx context.Context)

// JobQueueService runs background jobs on a fixed pool of workers. It
// carries the fire-and-forget side effects of the workflows, such as
// history mirroring and notifications, off the request path.
type JobQueueService struct {
	jobs    chan Job
	resume  chan struct{}
	paused  int32
	wg      sync.WaitGroup
	mu      sync.Mutex
	closing int32
}

func NewJobQueueService(ctx context.Context, capacity, workers int) *JobQueueService {
	service := &JobQueueService{
		jobs:   make(chan Job, capacity),
		resume: make(chan struct{}),
	}
	service.start(ctx, workers)

	return service
}

func (jqs *JobQueueService) start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		jqs.wg.Add(1)

		go func() {
			defer jqs.wg.Done()

			for {
				select {
				case job, ok := <-jqs.jobs:
					if !ok {
						return
					}

					if atomic.LoadInt32(&jqs.paused) == 1 {
						// Resume swaps the channel under the mutex, so
						// take a snapshot before blocking on it. The
						// second flag check covers a Resume that ran
						// between the first check and the snapshot.
						jqs.mu.Lock()
						resume := jqs.resume
						jqs.mu.Unlock()

						if atomic.LoadInt32(&jqs.paused) == 1 {
							<-resume
						}
					}

					job(ctx)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

// Enqueue submits a job. It never blocks; a full or closed queue is
// reported as an error for the caller to log.
func (jqs *JobQueueService) Enqueue(job Job) error {
	if atomic.LoadInt32(&jqs.closing) == 1 {
		return ErrJobQueueClosed
	}

	select {
	case jqs.jobs <- job:
		return nil
	default:
		return ErrJobQueueIsFull
	}
}

// ScheduleJob enqueues the job after the delay.
func (jqs *JobQueueService) ScheduleJob(job Job, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if err := jqs.Enqueue(job); err != nil {
			logger.Log.Error("failed to schedule job", zap.Error(err))
		}
	})
}

// Pause stops workers from picking up new jobs until Resume.
func (jqs *JobQueueService) Pause() {
	atomic.CompareAndSwapInt32(&jqs.paused, 0, 1)
}

// Resume releases workers blocked by Pause.
func (jqs *JobQueueService) Resume() {
	if atomic.CompareAndSwapInt32(&jqs.paused, 1, 0) {
		jqs.mu.Lock()
		defer jqs.mu.Unlock()

		close(jqs.resume)
		jqs.resume = make(chan struct{})
	}
}

// PauseAndResume pauses the workers for the given window, typically on
// a gateway rate limit.
func (jqs *JobQueueService) PauseAndResume(delay time.Duration) {
	jqs.Pause()
	time.AfterFunc(delay, func() {
		jqs.Resume()
	})
}

// Shutdown closes the queue and waits for in-flight jobs to finish.
func (jqs *JobQueueService) Shutdown() {
	if atomic.CompareAndSwapInt32(&jqs.closing, 0, 1) {
		close(jqs.jobs)
		jqs.wg.Wait()
	}
}
