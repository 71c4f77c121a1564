package debrief

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/debrief/internal/catalog"
	"github.com/fyrsmithlabs/debrief/internal/condition"
	"github.com/fyrsmithlabs/debrief/internal/config"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"github.com/fyrsmithlabs/debrief/internal/validator"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/debrief/internal/debrief")

const defaultCallTimeout = 60 * time.Second

// Session describes one evaluation.
type Session struct {
	ID           string
	IncidentType string
	StartedAt    time.Time
}

// Observer is notified of session lifecycle changes. Callbacks run
// synchronously on the evaluating goroutine. Returned errors are logged
// and do not change the outcome.
type Observer interface {
	Started(ctx context.Context, s Session) error
	Completed(ctx context.Context, s Session, r *Report) error
	Failed(ctx context.Context, s Session, err error) error
}

// Options configures an Orchestrator.
type Options struct {
	Validator validator.Validator
	Store     catalog.Store
	Logger    *logging.Logger
	Metrics   *Metrics
	Observer  Observer

	// Tolerance is the relaxation ratio in [0, 1).
	Tolerance float64
	// BranchCodes are the recognized time/life-critical protocol codes.
	// Defaults to config.DefaultBranchCodes.
	BranchCodes []string
	// CallTimeout bounds every validator call. Defaults to 60s.
	CallTimeout time.Duration
	// Concurrency bounds in-flight item checks. Defaults to
	// config.DefaultConcurrency().
	Concurrency int
}

// Orchestrator evaluates transcripts. It is safe for concurrent use.
type Orchestrator struct {
	validator   validator.Validator
	store       catalog.Store
	logger      *logging.Logger
	metrics     *Metrics
	observer    Observer
	executor    *Executor
	tolerance   float64
	branchCodes map[string]struct{}
	callTimeout time.Duration
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Validator == nil {
		return nil, errors.New("debrief: validator is required")
	}
	if opts.Store == nil {
		return nil, errors.New("debrief: catalog store is required")
	}
	if opts.Tolerance < 0 || opts.Tolerance >= 1 {
		return nil, fmt.Errorf("debrief: tolerance must be in [0, 1), got %v", opts.Tolerance)
	}

	o := &Orchestrator{
		validator:   opts.Validator,
		store:       opts.Store,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		observer:    opts.Observer,
		tolerance:   opts.Tolerance,
		callTimeout: opts.CallTimeout,
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	if o.callTimeout <= 0 {
		o.callTimeout = defaultCallTimeout
	}

	branch := opts.BranchCodes
	if len(branch) == 0 {
		branch = config.DefaultBranchCodes
	}
	o.branchCodes = make(map[string]struct{}, len(branch))
	for _, c := range branch {
		o.branchCodes[c] = struct{}{}
	}

	size := opts.Concurrency
	if size <= 0 {
		size = config.DefaultConcurrency()
	}
	o.executor = NewExecutor(size, o.callTimeout, o.metrics, o.logger)
	return o, nil
}

// Evaluate runs every check for req and assembles the report. If any
// coarse check fails the error is returned and no report is produced.
func (o *Orchestrator) Evaluate(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess := Session{
		ID:           uuid.NewString(),
		IncidentType: req.Incident.IncidentType,
		StartedAt:    time.Now(),
	}
	ctx = logging.WithSessionID(ctx, sess.ID)
	ctx = logging.WithIncidentType(ctx, sess.IncidentType)

	ctx, span := tracer.Start(ctx, "debrief.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.String("incident.type", sess.IncidentType),
	)

	o.logger.Info(ctx, "evaluation started", zap.Int("transcript_bytes", len(req.Transcript)))
	o.notify(ctx, "started", func() error { return o.observer.Started(ctx, sess) })

	report, err := o.run(ctx, sess, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		o.metrics.RecordEvaluation("failed")
		o.logger.Error(ctx, "evaluation failed",
			zap.Duration("duration", time.Since(sess.StartedAt)),
			zap.Error(err))
		o.notify(ctx, "failed", func() error { return o.observer.Failed(ctx, sess, err) })
		return nil, err
	}

	o.metrics.RecordEvaluation("completed")
	o.metrics.RecordReport(report)
	o.logger.Info(ctx, "evaluation completed",
		zap.Duration("duration", time.Since(sess.StartedAt)),
		zap.String("critical", string(report.Sections[SectionCritical].Result)),
		zap.String("questions", string(report.Sections[SectionQuestions].Result)),
		zap.String("prearrivals", string(report.Sections[SectionPrearrivals].Result)))
	o.notify(ctx, "completed", func() error { return o.observer.Completed(ctx, sess, report) })
	return report, nil
}

func (o *Orchestrator) notify(ctx context.Context, event string, fn func() error) {
	if o.observer == nil {
		return
	}
	if err := fn(); err != nil {
		o.logger.Warn(ctx, "observer callback failed", zap.String("event", event), zap.Error(err))
	}
}

// evaluation holds the per-session state. Every task writes only its own
// slots; slots are read after the group has joined.
type evaluation struct {
	o          *Orchestrator
	transcript validator.Transcript

	address  *Section
	phone    *Section
	name     *Section
	general  []*Section
	critical *Section

	questions   *Section
	prearrivals *Section

	appliedQuestions      []string
	notAppliedQuestions   []string
	appliedPrearrivals    []string
	notAppliedPrearrivals []string
	appliedProtocols      []string
	notAppliedProtocols   []string
}

func (o *Orchestrator) run(ctx context.Context, sess Session, req Request) (*Report, error) {
	ev := &evaluation{
		o:          o,
		transcript: req.Transcript,
		general:    make([]*Section, len(GeneralChecks)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ev.checkAddress(gctx) })
	g.Go(func() error { return ev.checkPhone(gctx) })
	g.Go(func() error { return ev.checkName(gctx) })
	for i, gc := range GeneralChecks {
		g.Go(func() error { return ev.checkGeneral(gctx, i, gc) })
	}
	g.Go(func() error { return ev.checkCritical(gctx) })
	g.Go(func() error { return ev.checkGuidecard(gctx, req.Incident.IncidentType) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ev.assemble(sess)
}

// call runs one coarse validator call under its own deadline and records
// its latency and outcome.
func call[T any](ctx context.Context, ev *evaluation, cat validator.Category, fn func(context.Context) (*T, error)) (*T, error) {
	ctx, span := tracer.Start(ctx, "debrief.validate")
	defer span.End()
	span.SetAttributes(attribute.String("validator.category", string(cat)))

	callCtx, cancel := context.WithTimeout(ctx, ev.o.callTimeout)
	defer cancel()

	start := time.Now()
	res, err := fn(callCtx)
	duration := time.Since(start)

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		if errors.Is(err, validator.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			outcome = OutcomeTimeout
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "validator call failed")
	}
	ev.o.metrics.RecordValidation(string(cat), outcome, duration)
	ev.o.logger.Debug(ctx, "validator call finished",
		zap.String("category", string(cat)),
		zap.String("outcome", outcome),
		zap.Duration("duration", duration))
	return res, err
}

func (ev *evaluation) checkAddress(ctx context.Context) error {
	res, err := call(ctx, ev, validator.CategoryAddress, func(ctx context.Context) (*validator.AddressResult, error) {
		return ev.o.validator.Address(ctx, ev.transcript)
	})
	if err != nil {
		return err
	}
	ev.address = &Section{
		Result:      res.Overall,
		Explanation: res.Explanation,
		Flags: []SubFlag{
			{Name: FlagAskedAddressFirst, Value: res.AskedFirst},
			{Name: FlagAddressDoubleCheck, Value: res.DoubleChecked},
			{Name: FlagObtainedAddress, Value: res.Obtained},
			{Name: FlagDoubleCheckAtEnd, Value: res.CheckedAtEnd},
		},
	}
	return nil
}

func (ev *evaluation) checkPhone(ctx context.Context) error {
	res, err := call(ctx, ev, validator.CategoryPhone, func(ctx context.Context) (*validator.PhoneResult, error) {
		return ev.o.validator.Phone(ctx, ev.transcript)
	})
	if err != nil {
		return err
	}
	ev.phone = &Section{
		Result:      res.Overall,
		Explanation: res.Explanation,
		Flags: []SubFlag{
			{Name: FlagAskPhoneNumber, Value: res.Asked},
			{Name: FlagPhoneFollowUp, Value: res.FollowUp},
			{Name: FlagObtainedPhoneNumber, Value: res.Obtained},
		},
	}
	return nil
}

func (ev *evaluation) checkName(ctx context.Context) error {
	res, err := call(ctx, ev, validator.CategoryName, func(ctx context.Context) (*validator.NameResult, error) {
		return ev.o.validator.Name(ctx, ev.transcript)
	})
	if err != nil {
		return err
	}
	ev.name = &Section{
		Result:      res.Overall,
		Explanation: res.Explanation,
		Flags: []SubFlag{
			{Name: FlagAskFullName, Value: res.Asked},
			{Name: FlagFullNameFollowUp, Value: res.FollowUp},
			{Name: FlagObtainedFullName, Value: res.Obtained},
		},
	}
	return nil
}

func (ev *evaluation) checkGeneral(ctx context.Context, i int, gc GeneralCheck) error {
	res, err := call(ctx, ev, validator.CategoryGeneral, func(ctx context.Context) (*validator.Judgment, error) {
		return ev.o.validator.General(ctx, ev.transcript, gc.Prompt)
	})
	if err != nil {
		return err
	}
	ev.general[i] = &Section{Result: res.Result, Explanation: res.Explanation}
	return nil
}

func (ev *evaluation) resolve(ctx context.Context, defs []condition.Definition) (*validator.ConditionsResult, error) {
	return call(ctx, ev, validator.CategoryCondition, func(ctx context.Context) (*validator.ConditionsResult, error) {
		return ev.o.validator.Conditions(ctx, ev.transcript, defs)
	})
}

// leadingCode returns the first flag if it is a recognized branch code.
func (o *Orchestrator) leadingCode(flags []string) (string, bool) {
	if len(flags) == 0 {
		return "", false
	}
	_, ok := o.branchCodes[flags[0]]
	return flags[0], ok
}

// checkCritical detects the time/life-critical situation and, when the
// leading flag names a known protocol, judges that protocol's applicable
// instructions. Protocol catalogs are only read after flags are known.
func (ev *evaluation) checkCritical(ctx context.Context) error {
	flags, err := call(ctx, ev, validator.CategoryFlags, func(ctx context.Context) (*validator.FlagsResult, error) {
		return ev.o.validator.Flags(ctx, ev.transcript)
	})
	if err != nil {
		return err
	}

	code, ok := ev.o.leadingCode(flags.Flags)
	if !ok {
		// The audit lists hold branch codes only; absence of flags is
		// noted in the section instead.
		expl := flags.Explanation
		if len(flags.Flags) == 0 && expl == "" {
			expl = noCriticalFlags
		}
		ev.notAppliedProtocols = append([]string(nil), flags.Flags...)
		ev.critical = &Section{Result: validator.VerdictNA, Explanation: expl}
		ev.o.logger.Info(ctx, "no time/life-critical protocol applies", zap.Strings("flags", flags.Flags))
		return nil
	}
	ev.appliedProtocols = []string{code}
	ev.notAppliedProtocols = append([]string(nil), flags.Flags[1:]...)

	protocol, err := ev.o.store.Protocol(ctx, code)
	if err != nil {
		return err
	}
	conds, err := ev.resolve(ctx, protocol.Conditions)
	if err != nil {
		return err
	}
	instructions, err := catalog.SelectApplicable(conds.Applied, protocol.Instructions)
	if err != nil {
		return err
	}

	outcomes := ev.o.executor.Run(ctx, jobs(KindProtocol, instructions), ev.judge)
	verdict, sentence, err := Aggregate(instructions, outcomes, ev.o.tolerance)
	if err != nil {
		return withSection(err, SectionCritical)
	}

	ev.critical = &Section{
		Result:      verdict,
		Explanation: joinExplanation(flags.Explanation, conds.Explanation, sentence),
	}
	ev.o.logger.Info(ctx, "time/life-critical instructions checked",
		zap.String("protocol", code),
		zap.Ints("conditions", conds.Applied.IDs()),
		zap.Int("instructions", len(instructions)),
		zap.String("result", string(verdict)))
	return nil
}

// checkGuidecard judges the incident type's questions and prearrival
// instructions. It does not depend on the flags result.
func (ev *evaluation) checkGuidecard(ctx context.Context, incidentType string) error {
	card, err := ev.o.store.Guidecard(ctx, incidentType)
	if err != nil {
		return err
	}
	conds, err := ev.resolve(ctx, card.Conditions)
	if err != nil {
		return err
	}

	questions, err := catalog.SelectApplicable(conds.Applied, card.Questions)
	if err != nil {
		return err
	}
	prearrivals, err := catalog.SelectApplicable(conds.Applied, card.Instructions)
	if err != nil {
		return err
	}

	all := append(jobs(KindQuestion, questions), jobs(KindPrearrival, prearrivals)...)
	outcomes := ev.o.executor.Run(ctx, all, ev.judge)
	qOut, pOut := outcomes[:len(questions)], outcomes[len(questions):]

	ev.appliedQuestions, ev.notAppliedQuestions = partition(questions, qOut)
	ev.appliedPrearrivals, ev.notAppliedPrearrivals = partition(prearrivals, pOut)

	qVerdict, qSentence, err := Aggregate(questions, qOut, ev.o.tolerance)
	if err != nil {
		return withSection(err, SectionQuestions)
	}
	pVerdict, pSentence, err := Aggregate(prearrivals, pOut, ev.o.tolerance)
	if err != nil {
		return withSection(err, SectionPrearrivals)
	}

	ev.questions = &Section{Result: qVerdict, Explanation: joinExplanation(conds.Explanation, qSentence)}
	ev.prearrivals = &Section{Result: pVerdict, Explanation: joinExplanation(conds.Explanation, pSentence)}
	ev.o.logger.Info(ctx, "guidecard checked",
		zap.Ints("conditions", conds.Applied.IDs()),
		zap.Int("questions", len(questions)),
		zap.Int("prearrivals", len(prearrivals)),
		zap.String("questions_result", string(qVerdict)),
		zap.String("prearrivals_result", string(pVerdict)))
	return nil
}

func (ev *evaluation) judge(ctx context.Context, j Job) (bool, error) {
	res, err := ev.o.validator.Check(ctx, ev.transcript, j.Text)
	if err != nil {
		return false, err
	}
	return res.Passed(), nil
}

func jobs(kind string, items []string) []Job {
	out := make([]Job, len(items))
	for i, it := range items {
		out[i] = Job{Kind: kind, Text: it}
	}
	return out
}

// partition splits items by outcome, keeping catalog order.
func partition(items []string, outcomes []bool) (given, notGiven []string) {
	for i, it := range items {
		if outcomes[i] {
			given = append(given, it)
		} else {
			notGiven = append(notGiven, it)
		}
	}
	return given, notGiven
}

func withSection(err error, section string) error {
	var ae *AggregationError
	if errors.As(err, &ae) && ae.Section == "" {
		ae.Section = section
	}
	return err
}

// assemble builds the report after every task has joined.
func (ev *evaluation) assemble(sess Session) (*Report, error) {
	slots := map[string]*Section{
		SectionAddress:     ev.address,
		SectionPhone:       ev.phone,
		SectionName:        ev.name,
		SectionQuestions:   ev.questions,
		SectionPrearrivals: ev.prearrivals,
		SectionCritical:    ev.critical,
	}
	for i, gc := range GeneralChecks {
		slots[gc.Section] = ev.general[i]
	}

	r := &Report{
		SessionID:             sess.ID,
		IncidentType:          sess.IncidentType,
		Sections:              make(map[string]Section, len(SectionKeys)),
		AppliedQuestions:      ev.appliedQuestions,
		NotAppliedQuestions:   ev.notAppliedQuestions,
		AppliedPrearrivals:    ev.appliedPrearrivals,
		NotAppliedPrearrivals: ev.notAppliedPrearrivals,
		AppliedProtocols:      ev.appliedProtocols,
		NotAppliedProtocols:   ev.notAppliedProtocols,
	}
	for _, key := range SectionKeys {
		s := slots[key]
		if s == nil {
			return nil, &AggregationError{Section: key, Reason: "no result was produced"}
		}
		r.Sections[key] = *s
	}
	return r, nil
}
