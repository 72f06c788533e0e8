package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Queue is the outbox persistence contract the worker drains.
type Queue interface {
	Enqueue(ctx context.Context, recipient, subject, body string) (int64, error)
	FetchNext(ctx context.Context) (*PendingMessage, error)
	MarkSent(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, m *PendingMessage) error
	MarkFailed(ctx context.Context, m *PendingMessage) error
}

// Outbox pairs the persistent queue with a delivery worker. Producers call
// Enqueue from the request path; the worker sends messages with retry and
// backoff until they succeed or exhaust their attempts.
type Outbox struct {
	queue    Queue
	notifier Notifier
	logger   *slog.Logger
	stop     chan struct{}
	wg       sync.WaitGroup

	// PollInterval is how long the worker idles when the queue is empty.
	PollInterval time.Duration
	// SendTimeout bounds a single delivery attempt.
	SendTimeout time.Duration
}

func NewOutbox(queue Queue, notifier Notifier, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{
		queue:        queue,
		notifier:     notifier,
		logger:       logger,
		stop:         make(chan struct{}),
		PollInterval: 500 * time.Millisecond,
		SendTimeout:  30 * time.Second,
	}
}

// Enqueue persists a message for later delivery.
func (o *Outbox) Enqueue(ctx context.Context, recipient, subject, body string) (int64, error) {
	return o.queue.Enqueue(ctx, recipient, subject, body)
}

// Start launches the delivery worker goroutine.
func (o *Outbox) Start(ctx context.Context) {
	o.wg.Add(1)
	go o.worker(ctx)
}

// Stop signals the worker to stop and waits for it.
func (o *Outbox) Stop() {
	close(o.stop)
	o.wg.Wait()
}

func (o *Outbox) worker(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-o.stop:
			o.logger.Info("outbox worker stopping")
			return
		case <-ctx.Done():
			o.logger.Info("context canceled, outbox worker exiting")
			return
		default:
			msg, err := o.queue.FetchNext(ctx)
			if err != nil {
				o.logger.Error("fetch outbox message", "err", err)
				o.idle()
				continue
			}
			if msg == nil {
				o.idle()
				continue
			}
			o.deliver(ctx, msg)
		}
	}
}

func (o *Outbox) deliver(ctx context.Context, msg *PendingMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, o.SendTimeout)
	err := o.notifier.Send(sendCtx, Message{Recipient: msg.Recipient, Subject: msg.Subject, Body: msg.Body})
	cancel()

	if err == nil {
		if mkErr := o.queue.MarkSent(ctx, msg.ID); mkErr != nil {
			o.logger.Error("mark message sent", "id", msg.ID, "err", mkErr)
		}
		return
	}

	msg.Attempts++
	msg.LastError = err.Error()
	if msg.Attempts >= msg.MaxAttempts {
		o.logger.Error("notification failed permanently", "id", msg.ID, "recipient", msg.Recipient, "err", err)
		if mvErr := o.queue.MarkFailed(ctx, msg); mvErr != nil {
			o.logger.Error("mark message failed", "id", msg.ID, "err", mvErr)
		}
		return
	}

	t := time.Now().Add(BackoffDuration(msg.Attempts))
	msg.NextTryAt = &t
	o.logger.Warn("notification attempt failed, rescheduling", "id", msg.ID, "attempt", msg.Attempts, "err", err)
	if upErr := o.queue.Reschedule(ctx, msg); upErr != nil {
		o.logger.Error("reschedule message", "id", msg.ID, "err", upErr)
	}
}

func (o *Outbox) idle() {
	select {
	case <-o.stop:
	case <-time.After(o.PollInterval):
	}
}

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
