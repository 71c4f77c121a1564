package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/debrief/internal/condition"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"go.uber.org/zap"
)

// LLMValidator implements Validator by prompting a language model.
type LLMValidator struct {
	completer Completer
	prompts   Prompts
	logger    *logging.Logger
}

// NewLLMValidator creates a validator. Nil prompts means DefaultPrompts.
func NewLLMValidator(c Completer, prompts Prompts, logger *logging.Logger) *LLMValidator {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LLMValidator{completer: c, prompts: prompts, logger: logger}
}

func conversation(t Transcript) string {
	return "conversation: " + string(t)
}

func checkPayload(check string, t Transcript) string {
	return fmt.Sprintf("check: %s, \n conversation: %s", check, t)
}

func assertionPayload(defs []condition.Definition, t Transcript) (string, error) {
	b, err := json.Marshal(defs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("assertion: %s, \n conversation: %s", b, t), nil
}

// call runs one completion and checks the response shape for cat.
func (v *LLMValidator) call(ctx context.Context, cat Category, user string) (response, error) {
	v.logger.Trace(ctx, "validator request", zap.String("category", string(cat)), zap.Int("bytes", len(user)))

	raw, err := v.completer.Complete(ctx, v.prompts.System(cat), user)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ServiceError{Category: cat, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
		}
		if errors.Is(err, context.Canceled) {
			return nil, &ServiceError{Category: cat, Err: err}
		}
		return nil, &ServiceError{Category: cat, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}

	v.logger.Trace(ctx, "validator response", zap.String("category", string(cat)), zap.String("body", raw))

	r, err := parseResponse(cat, raw)
	if err != nil {
		return nil, &ServiceError{Category: cat, Err: err}
	}
	return r, nil
}

func wrap[T any](cat Category, res *T, err error) (*T, error) {
	if err != nil {
		return nil, &ServiceError{Category: cat, Err: err}
	}
	return res, nil
}

func (v *LLMValidator) Address(ctx context.Context, t Transcript) (*AddressResult, error) {
	r, err := v.call(ctx, CategoryAddress, conversation(t))
	if err != nil {
		return nil, err
	}
	res, err := decodeAddress(r)
	return wrap(CategoryAddress, res, err)
}

func (v *LLMValidator) Phone(ctx context.Context, t Transcript) (*PhoneResult, error) {
	r, err := v.call(ctx, CategoryPhone, conversation(t))
	if err != nil {
		return nil, err
	}
	res, err := decodePhone(r)
	return wrap(CategoryPhone, res, err)
}

func (v *LLMValidator) Name(ctx context.Context, t Transcript) (*NameResult, error) {
	r, err := v.call(ctx, CategoryName, conversation(t))
	if err != nil {
		return nil, err
	}
	res, err := decodeName(r)
	return wrap(CategoryName, res, err)
}

func (v *LLMValidator) General(ctx context.Context, t Transcript, check string) (*Judgment, error) {
	r, err := v.call(ctx, CategoryGeneral, checkPayload(check, t))
	if err != nil {
		return nil, err
	}
	res, err := decodeJudgment(r)
	return wrap(CategoryGeneral, res, err)
}

func (v *LLMValidator) Flags(ctx context.Context, t Transcript) (*FlagsResult, error) {
	r, err := v.call(ctx, CategoryFlags, conversation(t))
	if err != nil {
		return nil, err
	}
	res, err := decodeFlags(r)
	return wrap(CategoryFlags, res, err)
}

func (v *LLMValidator) Conditions(ctx context.Context, t Transcript, defs []condition.Definition) (*ConditionsResult, error) {
	if len(defs) == 0 {
		return &ConditionsResult{Applied: condition.NewSet()}, nil
	}
	payload, err := assertionPayload(defs, t)
	if err != nil {
		return nil, &ServiceError{Category: CategoryCondition, Err: err}
	}
	r, err := v.call(ctx, CategoryCondition, payload)
	if err != nil {
		return nil, err
	}
	res, err := decodeConditions(r)
	return wrap(CategoryCondition, res, err)
}

func (v *LLMValidator) Check(ctx context.Context, t Transcript, item string) (*Judgment, error) {
	r, err := v.call(ctx, CategoryCheck, checkPayload(item, t))
	if err != nil {
		return nil, err
	}
	res, err := decodeJudgment(r)
	return wrap(CategoryCheck, res, err)
}

var _ Validator = (*LLMValidator)(nil)
