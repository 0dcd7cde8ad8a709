// Package dispatch owns asynchronous meeting notification delivery: a
// multiple-producer, single-consumer FIFO job queue drained by one
// background worker. Enqueueing never blocks the caller; jobs, once
// accepted, are not cancellable.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/labmanhq/labman/internal/domain"
	"github.com/labmanhq/labman/internal/mailer"
	"github.com/labmanhq/labman/internal/observability"
	"github.com/labmanhq/labman/internal/ratelimit"
	"github.com/labmanhq/labman/internal/repository"
	"go.uber.org/zap"
)

// EventKind distinguishes the notification templates.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
)

func (k EventKind) emailType() string {
	if k == EventUpdated {
		return domain.EmailTypeMeetingUpdated
	}
	return domain.EmailTypeMeetingCreated
}

const (
	defaultQueueSize = 1024
	mailChannel      = "email"
)

// Job is a transient notification work item. It is never persisted.
type Job struct {
	Kind       EventKind
	Creator    domain.User
	Meeting    domain.Meeting
	Recipients []domain.User
	EnqueuedAt time.Time
}

type Dispatcher struct {
	mail     mailer.Mailer
	failures repository.FailureRepository
	limiter  ratelimit.RateLimiter
	logger   *zap.Logger
	metrics  *observability.Metrics
	jobs     chan Job
	labName  string
	baseURL  string
	now      func() time.Time
}

func NewDispatcher(
	mail mailer.Mailer,
	failures repository.FailureRepository,
	limiter ratelimit.RateLimiter,
	queueSize int,
	labName string,
	baseURL string,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if mail == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if failures == nil {
		return nil, fmt.Errorf("failure repository is required")
	}
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		mail:     mail,
		failures: failures,
		limiter:  limiter,
		logger:   logger,
		jobs:     make(chan Job, queueSize),
		labName:  labName,
		baseURL:  baseURL,
		now:      time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// EnqueueCreated submits a create-notification job. It returns
// immediately; the caller is never blocked on mail delivery.
func (d *Dispatcher) EnqueueCreated(creator domain.User, meeting domain.Meeting, recipients []domain.User) {
	d.enqueue(Job{Kind: EventCreated, Creator: creator, Meeting: meeting, Recipients: recipients})
}

// EnqueueUpdated submits an update-notification job. Callers only
// invoke this when the meeting time actually changed.
func (d *Dispatcher) EnqueueUpdated(creator domain.User, meeting domain.Meeting, recipients []domain.User) {
	d.enqueue(Job{Kind: EventUpdated, Creator: creator, Meeting: meeting, Recipients: recipients})
}

func (d *Dispatcher) enqueue(job Job) {
	job.EnqueuedAt = d.now()

	select {
	case d.jobs <- job:
		if d.metrics != nil {
			d.metrics.SetDispatchQueueDepth(len(d.jobs))
		}
	default:
		// Queue saturated. Dropping is the accepted overflow policy,
		// but never a silent one.
		d.logger.Error("notification job dropped, queue full",
			zap.String("kind", string(job.Kind)),
			zap.Int64("meetingId", job.Meeting.ID),
			zap.Int("recipients", len(job.Recipients)),
		)
		if d.metrics != nil {
			d.metrics.IncDispatchJobDropped()
		}
	}
}

// Start drains the queue serially until context cancellation. All
// recipients of a job are processed before the next job begins, so
// cross-job FIFO ordering holds.
func (d *Dispatcher) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	d.logger.Info("notification dispatcher started", zap.Int("queueCapacity", cap(d.jobs)))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return nil
		case job := <-d.jobs:
			if d.metrics != nil {
				d.metrics.SetDispatchQueueDepth(len(d.jobs))
			}
			d.process(ctx, job)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, job Job) {
	emailType := job.Kind.emailType()

	for _, recipient := range job.Recipients {
		if !recipient.EmailNotifications {
			if d.metrics != nil {
				d.metrics.IncEmailSkipped(emailType)
			}
			continue
		}

		subject, html, text, err := d.render(job, recipient)
		if err != nil {
			d.logger.Error("failed to render notification",
				zap.String("emailType", emailType),
				zap.Int64("meetingId", job.Meeting.ID),
				zap.Error(err),
			)
			d.recordFailure(ctx, emailType, recipient.Email, subject, err)
			continue
		}

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx, mailChannel); err != nil {
				// Limiter trouble must not lose the notification; log
				// and send anyway.
				d.logger.Warn("mail rate limiter unavailable",
					zap.String("recipient", recipient.Email),
					zap.Error(err),
				)
			}
		}

		sendStart := d.now()
		sendErr := d.mail.Send(ctx, mailer.Message{
			To:      recipient.Email,
			Subject: subject,
			HTML:    html,
			Text:    text,
		})
		if d.metrics != nil {
			d.metrics.ObserveEmailSendDuration(emailType, d.now().Sub(sendStart))
		}

		if sendErr != nil {
			d.logger.Error("failed to send notification",
				zap.String("emailType", emailType),
				zap.String("recipient", recipient.Email),
				zap.Int64("meetingId", job.Meeting.ID),
				zap.Error(sendErr),
			)
			d.recordFailure(ctx, emailType, recipient.Email, subject, sendErr)
			continue
		}

		if d.metrics != nil {
			d.metrics.IncEmailSent(emailType)
		}
	}
}

func (d *Dispatcher) render(job Job, recipient domain.User) (subject, html, text string, err error) {
	data := messageData{
		RecipientName: recipient.Name,
		Title:         job.Meeting.Title,
		When:          formatWhen(job.Meeting.MeetingTime),
		Organizer:     job.Creator.Name,
		Description:   job.Meeting.Description,
		Summary:       job.Meeting.Summary,
		Link:          fmt.Sprintf("%s/meetings/%d", d.baseURL, job.Meeting.ID),
		LabName:       d.labName,
	}

	if job.Kind == EventUpdated {
		return renderUpdated(data)
	}
	return renderCreated(data)
}

// recordFailure appends an EmailFailure audit row. Retry bookkeeping
// starts at zero; a future retrier advances it.
func (d *Dispatcher) recordFailure(ctx context.Context, emailType, recipient, subject string, sendErr error) {
	failure := &domain.EmailFailure{
		EmailType:    emailType,
		Recipient:    recipient,
		ErrorMessage: sendErr.Error(),
		Payload:      subject,
		RetryCount:   0,
		CreatedAt:    d.now().UTC(),
	}

	if err := d.failures.Create(ctx, failure); err != nil {
		d.logger.Error("failed to record email failure",
			zap.String("recipient", recipient),
			zap.Error(err),
		)
	}

	if d.metrics != nil {
		reason := "permanent_error"
		if mailer.IsTransient(sendErr) {
			reason = "transient_error"
		}
		d.metrics.IncEmailFailed(emailType, reason)
	}
}
