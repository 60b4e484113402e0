package svg2png

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"
)

// workPool runs jobs across a fixed number of concurrency slots.
//
// A single coordinating loop owns all scheduling state; job goroutines
// report through a completion channel and never touch shared state.
// Slots refill eagerly: a settled job immediately frees its slot for
// the next pending job, so no slot idles while work remains.
type workPool struct {
	capacity int
	run      func(ctx context.Context, job Job) outcome
	log      zerolog.Logger
}

// runAll executes every job and returns once all have settled. A
// failure never cancels in-flight or pending siblings; each job runs to
// completion regardless of other outcomes.
func (p *workPool) runAll(ctx context.Context, jobs []Job) []outcome {
	pending := slices.Clone(jobs)
	total := len(pending)
	settled := make([]outcome, 0, total)
	if total == 0 {
		return settled
	}

	done := make(chan outcome)

	// launchNext moves the last pending job into its own goroutine.
	// Consumption order is unspecified for callers; popping the tail
	// keeps the pending slice in place.
	launchNext := func() {
		job := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		go func() {
			done <- p.run(ctx, job)
		}()
	}

	slots := p.capacity
	if total < slots {
		slots = total
	}
	for i := 0; i < slots; i++ {
		launchNext()
	}

	for len(settled) < total {
		out := <-done
		settled = append(settled, out)
		p.log.Debug().
			Str("source", out.job.Source).
			Err(out.err).
			Int("settled", len(settled)).
			Int("pending", len(pending)).
			Msg("job settled")

		if len(pending) > 0 {
			launchNext()
		}
	}

	return settled
}

// aggregate resolves a fully settled batch: every destination when all
// jobs succeeded, otherwise only the failures, joined. Completed writes
// stay on disk either way; a partial batch reports as a failure without
// rolling back outputs.
func aggregate(settled []outcome) ([]string, error) {
	dests := make([]string, 0, len(settled))
	var failures []error

	for _, out := range settled {
		if out.err != nil {
			failures = append(failures, out.err)
			continue
		}
		dests = append(dests, out.dest)
	}

	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return dests, nil
}
