package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/shared"
	"genesis-provision/internal/types"
)

// Operation is one retryable shell-level step.  Run blocks until the
// external work completes; there is no way to cancel an in-flight
// attempt short of context-driven process termination.
type Operation struct {
	Description string
	Run         func(ctx context.Context) ([]byte, error)
}

// RetryResult reports how an operation ended: the number of attempts
// actually made (1..MaxAttempts) and the output of the last attempt.
type RetryResult struct {
	Attempts int
	Output   []byte
}

// RetryExecutor runs operations under a bounded-attempt constant
// backoff policy.  Every attempt, successful or not, is appended to
// the run-scoped transcript.
type RetryExecutor struct {
	Transcript ports.TranscriptPort
}

func NewRetryExecutor(transcript ports.TranscriptPort) RetryExecutor {
	return RetryExecutor{Transcript: transcript}
}

// Execute runs op under the given policy.  It returns a nil error as
// soon as one attempt succeeds; after MaxAttempts failures the last
// error is surfaced and the caller decides whether that is fatal.
func (e RetryExecutor) Execute(ctx context.Context, op Operation, policy types.RetryPolicy) (RetryResult, error) {
	if policy.MaxAttempts < 1 {
		return RetryResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("retry policy must allow at least one attempt, got %d", policy.MaxAttempts))
	}
	result := RetryResult{}
	wrapped := func() error {
		result.Attempts++
		output, err := op.Run(ctx)
		result.Output = output
		if e.Transcript != nil {
			e.Transcript.Attempt(op.Description, result.Attempts, policy.MaxAttempts, output, err)
		}
		if err != nil {
			log.Ctx(ctx).Warn().
				Str("operation", op.Description).
				Int("attempt", result.Attempts).
				Int("max_attempts", policy.MaxAttempts).
				Msg("operation attempt failed")
			return err
		}
		return nil
	}
	strategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Backoff), uint64(policy.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(wrapped, strategy); err != nil {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("%s failed after %d attempt(s)", op.Description, result.Attempts)).
			WithCause(shared.CommandError(result.Output, err))
	}
	return result, nil
}
