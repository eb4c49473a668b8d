package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/draftkeeper/internal/server/retention"
)

// Path names the code path that produced a mutation result.
type Path string

const (
	PathTransaction Path = "transaction"
	PathFallback    Path = "fallback"
)

// MutationResult is what a replace or revert returns. Retention is nil when
// no trim ran.
type MutationResult struct {
	Content   *models.Content   `json:"content"`
	Path      Path              `json:"path"`
	Retention *retention.Result `json:"retention,omitempty"`
}

// outcome of one attempt at running a mutation.
type outcome int

const (
	outcomeCommitted outcome = iota
	outcomeFellBack
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeCommitted:
		return "committed"
	case outcomeFellBack:
		return "fell back"
	default:
		return "failed"
	}
}

type attempt struct {
	outcome outcome
	path    Path
	result  mutationOutput
	err     error
}

type mutationOutput struct {
	content   *models.Content
	retention *retention.Result
}

// mutation is the body of a compound write. It must only touch the store
// through repos so the same body runs inside a transaction or without one.
type mutation func(ctx context.Context, repos repomanager.Repositories) (mutationOutput, error)

// isDomainError reports errors that end the operation on either path.
func isDomainError(err error) bool {
	return errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation)
}

// run executes m transactionally and falls back to independent writes when
// the transaction cannot start or aborts for a non-domain reason.
func (s *ContentService) run(ctx context.Context, op string, m mutation) (*MutationResult, error) {
	a := s.inTransaction(ctx, op, m)
	if a.outcome == outcomeFellBack {
		a = s.withoutTransaction(ctx, op, m)
	}

	s.logger.Debug(ctx, "mutation finished", "op", op, "outcome", a.outcome.String(), "path", a.path)

	if a.outcome == outcomeFailed {
		return nil, a.err
	}
	return &MutationResult{Content: a.result.content, Path: a.path, Retention: a.result.retention}, nil
}

func (s *ContentService) inTransaction(ctx context.Context, op string, m mutation) attempt {
	var out mutationOutput
	err := s.manager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		var err error
		out, err = m(ctx, repos)
		return err
	})

	switch {
	case err == nil:
		return attempt{outcome: outcomeCommitted, path: PathTransaction, result: out}
	case isDomainError(err):
		return attempt{outcome: outcomeFailed, path: PathTransaction, err: unwrapStep(err)}
	case errors.Is(err, common.ErrTxUnsupported):
		s.once.WarnOnce("tx-unsupported", "store does not support transactions, using non-transactional writes")
		return attempt{outcome: outcomeFellBack, err: err}
	default:
		s.logger.Warn(ctx, "transaction aborted, retrying without transaction", "op", op, "error", err)
		return attempt{outcome: outcomeFellBack, err: err}
	}
}

func (s *ContentService) withoutTransaction(ctx context.Context, op string, m mutation) attempt {
	out, err := m(ctx, s.manager.Repositories())
	if err == nil {
		return attempt{outcome: outcomeCommitted, path: PathFallback, result: out}
	}
	if isDomainError(err) {
		return attempt{outcome: outcomeFailed, path: PathFallback, err: unwrapStep(err)}
	}

	step := "unknown"
	var se *stepError
	if errors.As(err, &se) {
		step = se.step
		err = se.err
	}
	s.logger.Error(ctx, "non-transactional write failed", "op", op, "step", step, "error", err)
	return attempt{outcome: outcomeFailed, path: PathFallback, err: &PersistenceError{Op: op, Step: step, Err: err}}
}

func unwrapStep(err error) error {
	var se *stepError
	if errors.As(err, &se) {
		return se.err
	}
	return err
}
