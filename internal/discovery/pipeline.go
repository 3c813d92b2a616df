package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/awsfootprint/internal/analyzer"
	"github.com/ppiankov/awsfootprint/internal/aws"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 4
	defaultCallTimeout = 2 * time.Minute
)

// CostSource returns per-service costs for a window. End is exclusive.
type CostSource interface {
	ServiceCosts(ctx context.Context, start, end time.Time, granularity string) ([]aws.CostEntry, error)
}

// Options tunes dispatch.
type Options struct {
	// Concurrency bounds the number of analyzers running at once.
	Concurrency int
	// CallTimeout bounds each analyzer run independently.
	CallTimeout time.Duration
	// Granularity is passed to the cost query (MONTHLY or DAILY).
	Granularity string
}

// Pipeline fetches costs, filters services and dispatches each surviving
// service to its analyzer.
type Pipeline struct {
	costs      CostSource
	registry   *analyzer.Registry
	filter     *Filter
	opts       Options
	progressFn func(Progress)
}

// NewPipeline creates a pipeline. A nil filter keeps every service.
func NewPipeline(costs CostSource, registry *analyzer.Registry, filter *Filter, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if filter == nil {
		filter = NewFilter(nil, nil, nil)
	}
	return &Pipeline{
		costs:    costs,
		registry: registry,
		filter:   filter,
		opts:     opts,
	}
}

// SetProgressFn sets a callback invoked after each service finishes.
// Calls are serialized.
func (p *Pipeline) SetProgressFn(fn func(Progress)) {
	p.progressFn = fn
}

// Discover runs one pass over period. Only a failed cost query returns an
// error (wrapping ErrCostQuery); analyzer failures are recorded per service.
// Services appear in the order the cost source returned them.
func (p *Pipeline) Discover(ctx context.Context, period Period, includeDetails bool) (*Result, error) {
	slog.Debug("Starting discovery",
		"start", period.Start.Format(dateLayout), "end", period.End.Format(dateLayout),
		"analyzers", p.registry.Tokens(), "services", p.filter.Fragments())

	entries, err := p.costs.ServiceCosts(ctx, period.Start, period.End.AddDate(0, 0, 1), p.opts.Granularity)
	if err != nil {
		slog.Error("Cost query failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCostQuery, err)
	}
	slog.Debug("Collected service costs", "services", len(entries))

	result := &Result{Period: period}
	var selected []aws.CostEntry
	for _, e := range entries {
		if keep, reason := p.filter.Keep(e.Service); !keep {
			slog.Debug("Skipping service", "service", e.Service, "reason", reason)
			result.Skipped = append(result.Skipped, SkippedService{Name: e.Service, Reason: reason})
			continue
		}
		selected = append(selected, e)
	}

	result.Services = p.dispatch(ctx, selected, includeDetails)
	return result, nil
}

func (p *Pipeline) dispatch(ctx context.Context, entries []aws.CostEntry, includeDetails bool) []ServiceReport {
	reports := make([]ServiceReport, len(entries))

	var (
		mu   sync.Mutex
		done int
	)
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)

	for i, e := range entries {
		g.Go(func() error {
			reports[i] = p.analyze(ctx, e, includeDetails)

			mu.Lock()
			done++
			if p.progressFn != nil {
				p.progressFn(Progress{
					Service:   e.Service,
					Done:      done,
					Total:     len(entries),
					Message:   fmt.Sprintf("Analyzed %s", e.Service),
					Timestamp: time.Now(),
				})
			}
			mu.Unlock()
			return nil // don't abort other services
		})
	}
	_ = g.Wait()
	return reports
}

// analyze always returns an entry for e, whatever the analyzer does.
func (p *Pipeline) analyze(ctx context.Context, e aws.CostEntry, includeDetails bool) ServiceReport {
	report := ServiceReport{Name: e.Service, Cost: e.Amount, Unit: e.Unit}

	factory, ok := p.registry.Resolve(e.Service)
	if !ok {
		slog.Debug("No analyzer registered", "service", e.Service)
		report.Note = noteUnsupported
		return report
	}

	a := factory()
	report.Kind = a.Kind()

	callCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	rec, err := runAnalyzer(callCtx, a, includeDetails)
	if err != nil {
		slog.Warn("Analyzer failed", "service", e.Service, "kind", report.Kind, "error", err)
		report.Note = noteAnalyzerError + err.Error()
		return report
	}
	slog.Debug("Analyzer finished", "service", e.Service, "kind", report.Kind, "duration", time.Since(start))

	report.Supported = true
	report.Detail = rec
	return report
}

func runAnalyzer(ctx context.Context, a analyzer.Analyzer, includeDetails bool) (rec *analyzer.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	rec, err = a.Analyze(ctx, includeDetails)
	if err == nil && rec == nil {
		rec = analyzer.NewRecord(includeDetails)
	}
	return rec, err
}
