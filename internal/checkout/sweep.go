package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/okalli/checkout-service/internal/domain"
)

// Sweeper charges instalments as they fall due. Each run first returns any
// instalments stuck in the request state by an interrupted run, then
// snapshots the due ids and works through them one at a time: claim the
// row in its own transaction, charge outside any transaction, record the
// result. A claim that cannot get the row lock is skipped, so concurrent
// sweeps never double-charge.
type Sweeper struct {
	logger      *slog.Logger
	service     *Service
	instalments domain.InstalmentRepository
	staleAfter  time.Duration
	now         func() time.Time
}

func NewSweeper(logger *slog.Logger, service *Service, instalments domain.InstalmentRepository, staleAfter time.Duration) *Sweeper {
	return &Sweeper{
		logger:      logger,
		service:     service,
		instalments: instalments,
		staleAfter:  staleAfter,
		now:         service.now,
	}
}

// Sweep processes every due instalment once. Failures on individual
// instalments are logged and do not stop the run.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if err := s.requeueStale(ctx); err != nil {
		return err
	}

	today := dateOnly(s.now())
	ids, err := s.instalments.DueIds(ctx, today)
	if err != nil {
		return err
	}

	s.logger.Info("sweeping due instalments", "count", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.process(ctx, id)
	}

	return nil
}

func (s *Sweeper) process(ctx context.Context, id int64) {
	claimed, err := s.instalments.Claim(ctx, id)
	if err != nil {
		s.logger.Error("cannot claim instalment", "instalment", id, "error", err)
		return
	}
	if !claimed {
		// locked by a concurrent sweep, or already dealt with
		s.logger.Info("skipping instalment", "instalment", id)
		return
	}

	ref := domain.PayableRef{Type: InstalmentPayableType, ID: id}
	checkout, err := s.service.Charge(ctx, ref, domain.SystemActor)
	if err != nil {
		// The row stays in request and will be requeued as stale; an
		// operator should find out why the charge could not be attempted.
		s.logger.Error("cannot charge instalment", "instalment", id, "error", err)
		return
	}

	s.logger.Info("charged instalment",
		"instalment", id,
		"checkout", checkout.ID,
		"state", checkout.State,
	)
}

// requeueStale returns request-state rows older than the stale window to
// pending and tells the admins, since a charge may have gone through
// without its result being recorded.
func (s *Sweeper) requeueStale(ctx context.Context) error {
	cutoff := s.now().Add(-s.staleAfter)

	ids, err := s.instalments.RequeueStale(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	s.logger.Warn("requeued stale instalments", "instalments", ids, "cutoff", cutoff)
	s.service.NotifyStaleRequeue(ids)

	return nil
}
