package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

const (
	defaultWorkers     = 4
	defaultSendTimeout = 10 * time.Second
	channelBuffer      = 256

	kindOTP   = "otp"
	kindReset = "password_reset"
)

// ErrQueueFull is returned when a recipient's shard has no room left.
var ErrQueueFull = errors.New("mail queue full")

type mailJob struct {
	kind string
	to   string
	// code for OTP mails, link for reset mails
	value string
	ttl   time.Duration
}

// MailDispatcher decorates a ports.Mailer with an asynchronous queue. Jobs are
// routed to a fixed set of workers by hashing the recipient, so mails to one
// address go out in the order they were requested. Every send is bounded by
// sendTimeout.
type MailDispatcher struct {
	workers     []chan mailJob
	mailer      ports.Mailer
	sendTimeout time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
}

// NewMailDispatcher creates a MailDispatcher with numWorkers sharded workers.
func NewMailDispatcher(numWorkers int, mailer ports.Mailer, sendTimeout time.Duration, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	d := &MailDispatcher{
		workers:     make([]chan mailJob, numWorkers),
		mailer:      mailer,
		sendTimeout: sendTimeout,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mailJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and exit
// once ctx is cancelled; Wait blocks until they are done.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *MailDispatcher) Wait() {
	d.wg.Wait()
}

func (d *MailDispatcher) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return d.enqueue(ctx, mailJob{kind: kindOTP, to: to, value: code, ttl: ttl})
}

func (d *MailDispatcher) SendPasswordReset(ctx context.Context, to, link string, ttl time.Duration) error {
	return d.enqueue(ctx, mailJob{kind: kindReset, to: to, value: link, ttl: ttl})
}

// enqueue never blocks the request: a full shard drops the job.
func (d *MailDispatcher) enqueue(ctx context.Context, job mailJob) error {
	idx := d.shardIndex(job.to)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.workers[idx] <- job:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		metrics.MailSentTotal.WithLabelValues(job.kind, "dropped").Inc()
		return ErrQueueFull
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan mailJob) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			// Flush what is already queued with a fresh deadline per job.
			for {
				select {
				case job := <-ch:
					depth.Dec()
					d.send(context.Background(), id, job)
				default:
					return
				}
			}
		case job := <-ch:
			depth.Dec()
			d.send(ctx, id, job)
		}
	}
}

func (d *MailDispatcher) send(ctx context.Context, workerID int, job mailJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
	defer cancel()

	start := time.Now()
	var err error
	switch job.kind {
	case kindOTP:
		err = d.mailer.SendOTP(ctx, job.to, job.value, job.ttl)
	case kindReset:
		err = d.mailer.SendPasswordReset(ctx, job.to, job.value, job.ttl)
	}
	metrics.MailSendDuration.WithLabelValues(job.kind).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailSentTotal.WithLabelValues(job.kind, "error").Inc()
		d.log.Error().Err(err).
			Str("kind", job.kind).
			Str("to", job.to).
			Int("worker_id", workerID).
			Msg("mail delivery failed")
		return
	}
	metrics.MailSentTotal.WithLabelValues(job.kind, "success").Inc()
}
