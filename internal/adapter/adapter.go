// Package adapter contains the protocol adapters that turn one library
// system's catalog into normalized holdings. Every adapter implements the
// same contract; the shared Base provides timing, timeouts, retries, the
// outbound HTTP client, and health reporting, so concrete adapters only
// implement the protocol conversation itself.
package adapter

import (
	"context"
	"time"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// Adapter searches one library system for a book.
type Adapter interface {
	// Search queries the system's catalog for the given ISBN-13 and
	// returns the holdings it reports. Errors carry an error code the
	// coordinator uses for retry, fallback, and reporting decisions.
	Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error)

	// HealthCheck probes the system with a lightweight request.
	HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health

	// Protocol reports which wire protocol this adapter speaks.
	Protocol() domain.Protocol
}

// Result is the envelope a successful search returns.
type Result struct {
	Holdings       []domain.BookHolding `json:"holdings"`
	Protocol       domain.Protocol      `json:"protocol"`
	ResponseTimeMs int64                `json:"responseTimeMs"`
}

// Health is the outcome of a single health probe.
type Health struct {
	Healthy   bool      `json:"healthy"`
	LatencyMs int64     `json:"latencyMs"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}
