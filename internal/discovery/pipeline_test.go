package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/awsfootprint/internal/analyzer"
	"github.com/ppiankov/awsfootprint/internal/aws"
	"github.com/ppiankov/awsfootprint/internal/logging"
	"github.com/shopspring/decimal"
)

type fakeCosts struct {
	entries []aws.CostEntry
	err     error
	start   time.Time
	end     time.Time
}

func (f *fakeCosts) ServiceCosts(_ context.Context, start, end time.Time, _ string) ([]aws.CostEntry, error) {
	f.start, f.end = start, end
	return f.entries, f.err
}

type fakeAnalyzer struct {
	kind  analyzer.Kind
	total int
	err   error
	delay time.Duration
	panic bool
}

func (f *fakeAnalyzer) Kind() analyzer.Kind { return f.kind }

func (f *fakeAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	if f.panic {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total", analyzer.Int(f.total))
	return rec, nil
}

func entry(name, amount string) aws.CostEntry {
	return aws.CostEntry{Service: name, Amount: decimal.RequireFromString(amount), Unit: "USD"}
}

func june() Period {
	return Period{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func register(reg *analyzer.Registry, token string, a analyzer.Analyzer) {
	reg.Register(token, func() analyzer.Analyzer { return a })
}

func TestPipeline_EndToEnd(t *testing.T) {
	costs := &fakeCosts{entries: []aws.CostEntry{
		entry("Compute Service", "12.50"),
		entry("Mystery Service", "3.00"),
		entry("Relational Store", "7.50"),
		entry("Tax", "1.00"),
	}}
	reg := analyzer.NewRegistry()
	register(reg, "compute service", &fakeAnalyzer{kind: analyzer.KindCompute, total: 3})
	register(reg, "Relational Store", &fakeAnalyzer{kind: analyzer.KindRelationalStore, err: errors.New("AccessDenied: rds:DescribeDBInstances")})

	p := NewPipeline(costs, reg, NewFilter([]string{"tax"}, nil, nil), Options{})
	result, err := p.Discover(context.Background(), june(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(result.Services))
	}
	names := []string{"Compute Service", "Mystery Service", "Relational Store"}
	for i, name := range names {
		if result.Services[i].Name != name {
			t.Fatalf("expected %q at %d, got %q", name, i, result.Services[i].Name)
		}
	}

	compute := result.Services[0]
	if !compute.Supported || compute.Detail == nil || compute.Kind != analyzer.KindCompute {
		t.Fatalf("expected supported compute entry, got %+v", compute)
	}
	if compute.Detail.DetailsRequested() {
		t.Fatal("expected details not requested")
	}

	mystery := result.Services[1]
	if mystery.Supported || mystery.Note != "In-depth analysis not supported yet" {
		t.Fatalf("unexpected unsupported entry: %+v", mystery)
	}
	if mystery.Cost.String() != "3" {
		t.Fatalf("expected cost preserved, got %s", mystery.Cost)
	}

	failed := result.Services[2]
	if failed.Supported || !strings.Contains(failed.Note, "AccessDenied") || !strings.HasPrefix(failed.Note, "analyzer error: ") {
		t.Fatalf("unexpected failed entry: %+v", failed)
	}

	if len(result.Skipped) != 1 || result.Skipped[0].Name != "Tax" || result.Skipped[0].Reason != SkipBlacklisted {
		t.Fatalf("expected Tax skipped, got %+v", result.Skipped)
	}
}

func TestPipeline_CostFailureIsFatal(t *testing.T) {
	costs := &fakeCosts{err: &aws.QueryError{Op: "get cost and usage (page 1)", Err: errors.New("denied")}}

	result, err := NewPipeline(costs, analyzer.NewRegistry(), nil, Options{}).Discover(context.Background(), june(), false)
	if result != nil {
		t.Fatal("expected no result")
	}
	if !errors.Is(err, ErrCostQuery) {
		t.Fatalf("expected ErrCostQuery, got %v", err)
	}
	var qe *aws.QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected wrapped *aws.QueryError, got %v", err)
	}
}

func TestPipeline_EndDateInclusive(t *testing.T) {
	costs := &fakeCosts{}
	if _, err := NewPipeline(costs, analyzer.NewRegistry(), nil, Options{}).Discover(context.Background(), june(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := costs.end.Format(dateLayout); got != "2024-07-01" {
		t.Fatalf("expected exclusive query end 2024-07-01, got %s", got)
	}
}

func TestPipeline_OrderIndependentOfCompletion(t *testing.T) {
	costs := &fakeCosts{entries: []aws.CostEntry{
		entry("A", "1"), entry("B", "2"), entry("C", "3"), entry("D", "4"),
	}}
	reg := analyzer.NewRegistry()
	register(reg, "A", &fakeAnalyzer{kind: "a", delay: 40 * time.Millisecond})
	register(reg, "B", &fakeAnalyzer{kind: "b", delay: 30 * time.Millisecond})
	register(reg, "C", &fakeAnalyzer{kind: "c", delay: 20 * time.Millisecond})
	register(reg, "D", &fakeAnalyzer{kind: "d"})

	result, err := NewPipeline(costs, reg, nil, Options{Concurrency: 4}).Discover(context.Background(), june(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, name := range []string{"A", "B", "C", "D"} {
		if result.Services[i].Name != name {
			t.Fatalf("expected %q at %d, got %q", name, i, result.Services[i].Name)
		}
		if !result.Services[i].Detail.DetailsRequested() {
			t.Fatalf("expected details requested for %s", name)
		}
	}
}

func TestPipeline_SlowAnalyzerTimesOutAlone(t *testing.T) {
	costs := &fakeCosts{entries: []aws.CostEntry{entry("Fast", "1"), entry("Slow", "2")}}
	reg := analyzer.NewRegistry()
	register(reg, "Fast", &fakeAnalyzer{kind: "fast", total: 1})
	register(reg, "Slow", &fakeAnalyzer{kind: "slow", delay: time.Second})

	result, err := NewPipeline(costs, reg, nil, Options{CallTimeout: 20 * time.Millisecond}).Discover(context.Background(), june(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Services[0].Supported {
		t.Fatalf("expected fast service supported, got %+v", result.Services[0])
	}
	slow := result.Services[1]
	if slow.Supported || !strings.Contains(slow.Note, "deadline exceeded") {
		t.Fatalf("expected timeout note, got %+v", slow)
	}
}

func TestPipeline_PanicIsRecorded(t *testing.T) {
	costs := &fakeCosts{entries: []aws.CostEntry{entry("Crashy", "1"), entry("Fine", "1")}}
	reg := analyzer.NewRegistry()
	register(reg, "Crashy", &fakeAnalyzer{kind: "crashy", panic: true})
	register(reg, "Fine", &fakeAnalyzer{kind: "fine"})

	result, err := NewPipeline(costs, reg, nil, Options{}).Discover(context.Background(), june(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Services[0].Supported || !strings.Contains(result.Services[0].Note, "boom") {
		t.Fatalf("expected panic recorded, got %+v", result.Services[0])
	}
	if !result.Services[1].Supported {
		t.Fatal("expected sibling unaffected")
	}
}

func TestPipeline_Progress(t *testing.T) {
	costs := &fakeCosts{entries: []aws.CostEntry{entry("A", "1"), entry("B", "1"), entry("C", "1")}}

	var (
		mu    sync.Mutex
		dones []int
	)
	p := NewPipeline(costs, analyzer.NewRegistry(), nil, Options{})
	p.SetProgressFn(func(pr Progress) {
		mu.Lock()
		defer mu.Unlock()
		if pr.Total != 3 {
			t.Errorf("expected total 3, got %d", pr.Total)
		}
		dones = append(dones, pr.Done)
	})
	if _, err := p.Discover(context.Background(), june(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dones) != 3 || dones[2] != 3 {
		t.Fatalf("expected 3 progress updates ending at 3, got %v", dones)
	}
}

func TestPipeline_VerboseLogsAnalyzersAndFilter(t *testing.T) {
	var buf bytes.Buffer
	saved := slog.Default()
	slog.SetDefault(logging.New(&buf, true))
	t.Cleanup(func() { slog.SetDefault(saved) })

	reg := analyzer.NewRegistry()
	register(reg, "Amazon Simple Storage Service", &fakeAnalyzer{kind: analyzer.KindObjectStore})
	register(reg, "AWS Lambda", &fakeAnalyzer{kind: analyzer.KindFunctionRuntime})
	costs := &fakeCosts{entries: []aws.CostEntry{entry("AWS Lambda", "1")}}

	p := NewPipeline(costs, reg, NewFilter(nil, nil, []string{"Lambda"}), Options{})
	if _, err := p.Discover(context.Background(), june(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Starting discovery",
		"start=2024-06-01",
		"end=2024-06-30",
		"amazon simple storage service",
		"aws lambda",
		"services=[lambda]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in debug log, got:\n%s", want, out)
		}
	}
}

func TestPipeline_QuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	saved := slog.Default()
	slog.SetDefault(logging.New(&buf, false))
	t.Cleanup(func() { slog.SetDefault(saved) })

	costs := &fakeCosts{entries: []aws.CostEntry{entry("Mystery", "1")}}
	if _, err := NewPipeline(costs, analyzer.NewRegistry(), nil, Options{}).Discover(context.Background(), june(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn level, got:\n%s", buf.String())
	}
}

func TestResult_JSONShape(t *testing.T) {
	rec := analyzer.NewRecord(false)
	rec.Summary.Set("total_instances", analyzer.Int(2))
	result := &Result{
		Period: june(),
		Services: []ServiceReport{
			{Name: "Amazon EC2", Cost: decimal.RequireFromString("12.50"), Unit: "USD", Supported: true, Kind: analyzer.KindCompute, Detail: rec},
			{Name: "Other", Cost: decimal.RequireFromString("0.1"), Unit: "USD", Note: noteUnsupported},
		},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"period":{"start":"2024-06-01","end":"2024-06-30"},"services":[` +
		`{"name":"Amazon EC2","cost":12.5,"unit":"USD","supported":true,"analyzer":"compute","detail":{"summary":{"total_instances":2}}},` +
		`{"name":"Other","cost":0.1,"unit":"USD","supported":false,"note":"In-depth analysis not supported yet"}]}`
	if string(data) != want {
		t.Fatalf("unexpected JSON:\n got %s\nwant %s", data, want)
	}
}
