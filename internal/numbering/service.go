// Package numbering allocates sequential document numbers (jobs, estimates,
// purchase orders, invoices) from shared atomic counters and formats them via
// configurable patterns.
package numbering

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Known document types.
const (
	DocTypeJob           = "job"
	DocTypeEstimate      = "estimate"
	DocTypeWorkOrder     = "work_order"
	DocTypePurchaseOrder = "purchase_order"
	DocTypeInvoice       = "invoice"
)

// FormatSource resolves the configured number pattern for a document type.
// An empty result means "use the built-in default".
type FormatSource interface {
	NumberFormat(ctx context.Context, docType string) string
}

// Allocator is the interface other modules consume.
type Allocator interface {
	Next(ctx context.Context, docType string) (string, error)
}

// Service allocates formatted document numbers.
type Service struct {
	repo    *Repository
	formats FormatSource
}

// NewService creates a new numbering service.
func NewService(repo *Repository, formats FormatSource) *Service {
	return &Service{repo: repo, formats: formats}
}

// Next atomically increments the named counter and renders it through the
// configured pattern for the document type.
func (s *Service) Next(ctx context.Context, docType string) (string, error) {
	counter, err := s.repo.Increment(ctx, docType)
	if err != nil {
		return "", err
	}

	pattern := ""
	if s.formats != nil {
		pattern = s.formats.NumberFormat(ctx, docType)
	}
	return FormatNumber(pattern, counter, time.Now()), nil
}

// Supported pattern placeholders.
var placeholders = []struct {
	token  string
	render func(counter int, now time.Time) string
}{
	{"{year}", func(_ int, now time.Time) string { return fmt.Sprintf("%d", now.Year()) }},
	{"{month:02d}", func(_ int, now time.Time) string { return fmt.Sprintf("%02d", int(now.Month())) }},
	{"{day:02d}", func(_ int, now time.Time) string { return fmt.Sprintf("%02d", now.Day()) }},
	{"{counter:04d}", func(counter int, _ time.Time) string { return fmt.Sprintf("%04d", counter) }},
}

// FormatNumber renders a counter value through a pattern supporting {year},
// {month:02d}, {day:02d} and {counter:04d}. A malformed pattern — one with an
// unrecognized placeholder or missing the counter — falls back to a plain
// 4-digit counter string.
func FormatNumber(pattern string, counter int, now time.Time) string {
	fallback := fmt.Sprintf("%04d", counter)
	if strings.TrimSpace(pattern) == "" {
		return fallback
	}
	if !strings.Contains(pattern, "{counter:04d}") {
		return fallback
	}

	result := pattern
	for _, ph := range placeholders {
		result = strings.ReplaceAll(result, ph.token, ph.render(counter, now))
	}

	// Any brace left over means an unknown placeholder.
	if strings.ContainsAny(result, "{}") {
		return fallback
	}
	return result
}
