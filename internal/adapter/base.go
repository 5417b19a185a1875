package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/arguspanoptes/argus-server/internal/domain"
	domainerrors "github.com/arguspanoptes/argus-server/internal/errors"
	"github.com/arguspanoptes/argus-server/internal/health"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/retry"
)

// Base carries the search lifecycle every adapter shares: timing, the
// per-request timeout from AdapterConfig, the retry loop, and health
// tracker notification. Concrete adapters embed a *Base and provide only
// the protocol-specific fetch.
type Base struct {
	client  *Client
	tracker *health.Tracker
	logger  *logger.Logger
	retry   retry.Options
}

// NewBase wires the shared pieces of the adapter stack.
func NewBase(client *Client, tracker *health.Tracker, log *logger.Logger, opts retry.Options) *Base {
	return &Base{
		client:  client,
		tracker: tracker,
		logger:  log,
		retry:   opts,
	}
}

// run executes one search attempt pipeline: retries around fetch, each
// attempt under the adapter config's own timeout, with the outcome
// reported to the health tracker either way.
func (b *Base) run(
	ctx context.Context,
	system *domain.LibrarySystem,
	cfg domain.AdapterConfig,
	fetch func(ctx context.Context) ([]domain.BookHolding, error),
) (*Result, error) {
	started := time.Now()

	var holdings []domain.BookHolding
	err := retry.Do(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()

		var err error
		holdings, err = fetch(attemptCtx)
		return err
	}, b.retry)

	elapsed := time.Since(started)
	if err != nil {
		// A deadline firing between attempts or during backoff surfaces
		// as a bare context error; classify it like a transport timeout.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			if domainerrors.CodeOf(err) == domainerrors.CodeInternal {
				err = domainerrors.Wrap(err, domainerrors.CodeTimeout, "system deadline elapsed")
			}
		}
		b.tracker.RecordFailure(system.ID, err, elapsed)
		b.logger.Debug("adapter search failed",
			"system", system.ID,
			"protocol", cfg.Protocol,
			"durationMs", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	b.tracker.RecordSuccess(system.ID, elapsed)
	return &Result{
		Holdings:       holdings,
		Protocol:       cfg.Protocol,
		ResponseTimeMs: elapsed.Milliseconds(),
	}, nil
}

// probe issues a single lightweight request and converts the outcome into
// a Health sample. Used by the HealthCheck implementations.
func (b *Base) probe(ctx context.Context, system *domain.LibrarySystem, cfg domain.AdapterConfig, rawURL string) Health {
	started := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	_, err := b.client.Get(probeCtx, system.ID, rawURL, nil)
	h := Health{
		LatencyMs: time.Since(started).Milliseconds(),
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		h.Message = err.Error()
		return h
	}
	h.Healthy = true
	return h
}

// finishHolding fills the fields every adapter sets identically: identity,
// source attribution defaulting, and the dedup fingerprint. The
// discriminator prefers barcode over call number; a holding with neither
// falls back to a constant so repeated copies at one branch collapse.
func finishHolding(h *domain.BookHolding, system *domain.LibrarySystem, thirteen isbn.ISBN13, branchCode string) {
	h.ISBN = thirteen
	h.SystemID = system.ID
	h.SystemName = system.Name
	if h.CatalogURL == "" {
		h.CatalogURL = system.CatalogURL
	}
	if h.Source == "" {
		h.Source = domain.SourceDirect
	}
	discriminator := h.Barcode
	if discriminator == "" {
		discriminator = h.CallNumber
	}
	h.Fingerprint = domain.NewFingerprint(system.ID, thirteen, branchCode, discriminator)
}

// resolveBranch matches scraped branch text against the system's declared
// branches. Unmatched text becomes the branch id verbatim so a renamed or
// undeclared branch still produces a holding.
func resolveBranch(system *domain.LibrarySystem, raw string) (domain.BranchId, string, string) {
	if b := system.FindBranch(raw); b != nil {
		return b.ID, b.Name, b.Code
	}
	return domain.BranchId(raw), raw, raw
}
