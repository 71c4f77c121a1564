package debrief

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fyrsmithlabs/debrief/internal/logging"
	"github.com/fyrsmithlabs/debrief/internal/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Item kinds, used in logs and metrics.
const (
	KindQuestion   = "question"
	KindPrearrival = "prearrival"
	KindProtocol   = "protocol"
)

// Job is one catalog item to judge.
type Job struct {
	Kind string
	Text string
}

// JudgeFunc judges a single job.
type JudgeFunc func(ctx context.Context, job Job) (bool, error)

// Executor judges catalog items in parallel. One Executor bounds the
// number of in-flight item checks across every evaluation that shares it.
type Executor struct {
	sem         chan struct{}
	callTimeout time.Duration
	metrics     *Metrics
	logger      *logging.Logger
}

// NewExecutor creates an executor running at most size checks at once.
// Each check gets its own deadline of callTimeout.
func NewExecutor(size int, callTimeout time.Duration, metrics *Metrics, logger *logging.Logger) *Executor {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		sem:         make(chan struct{}, size),
		callTimeout: callTimeout,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run judges every job and returns the outcomes in job order.
//
// A failed check (error, timeout, malformed response) is logged and
// recorded as false. Run never fails as a whole.
func (e *Executor) Run(ctx context.Context, jobs []Job, judge JudgeFunc) []bool {
	outcomes := make([]bool, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, j Job) {
			defer wg.Done()

			select {
			case e.sem <- struct{}{}:
				defer func() { <-e.sem }()
			case <-ctx.Done():
				e.fail(ctx, j, ctx.Err(), 0)
				return
			}

			outcomes[i] = e.judge(ctx, j, judge)
		}(i, job)
	}
	wg.Wait()

	return outcomes
}

func (e *Executor) judge(ctx context.Context, j Job, judge JudgeFunc) bool {
	ctx, span := tracer.Start(ctx, "debrief.check_item")
	defer span.End()
	span.SetAttributes(attribute.String("item.kind", j.Kind))

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	start := time.Now()
	ok, err := judge(callCtx, j)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "item check failed")
		e.fail(ctx, j, err, duration)
		return false
	}

	if e.metrics != nil {
		e.metrics.RecordValidation(string(validator.CategoryCheck), OutcomeOK, duration)
	}
	e.logger.Debug(ctx, "item checked",
		zap.String("kind", j.Kind),
		zap.String("item", j.Text),
		zap.Bool("given", ok),
		zap.Duration("duration", duration))
	span.SetAttributes(attribute.Bool("item.given", ok))
	return ok
}

func (e *Executor) fail(ctx context.Context, j Job, err error, duration time.Duration) {
	outcome := OutcomeError
	if errors.Is(err, validator.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		outcome = OutcomeTimeout
	}
	if e.metrics != nil {
		e.metrics.RecordValidation(string(validator.CategoryCheck), outcome, duration)
		e.metrics.RecordItemFailure(j.Kind)
	}
	e.logger.Warn(ctx, "item check failed, recording as not given",
		zap.String("kind", j.Kind),
		zap.String("item", j.Text),
		zap.String("outcome", outcome),
		zap.Error(err))
}
