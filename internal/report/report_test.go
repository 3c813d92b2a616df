package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/awsfootprint/internal/analyzer"
	"github.com/ppiankov/awsfootprint/internal/discovery"
	"github.com/shopspring/decimal"
)

func sampleResult() *discovery.Result {
	compute := analyzer.NewRecord(false)
	compute.Summary.
		Set("total_instances", analyzer.Int(1234)).
		Set("total_vcpu", analyzer.Int(4936)).
		Set("average_cpu", analyzer.Float(1234.5678)).
		Set("by_architecture", analyzer.NewMap().
			Set("arm", analyzer.Int(4)).
			Set("x86", analyzer.Int(1230))).
		Set("unresolved_types", analyzer.List{analyzer.String("x9.huge")}).
		Set("region", analyzer.String("us-east-1")).
		Set("tenancy", analyzer.Null{})

	var buckets analyzer.List
	for i := 0; i < 25; i++ {
		buckets = append(buckets, analyzer.NewMap().Set("name", analyzer.String("bucket")).Set("index", analyzer.Int(i)))
	}
	storage := analyzer.NewRecord(true)
	storage.Summary.Set("total_buckets", analyzer.Int(25)).Set("buckets", buckets)
	for _, b := range buckets[:3] {
		storage.AddDetail(b.(*analyzer.Map))
	}

	return &discovery.Result{
		Account: "123456789012",
		Period: discovery.Period{
			Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		},
		Services: []discovery.ServiceReport{
			{Name: "Amazon Simple Storage Service", Cost: decimal.RequireFromString("7.5"), Unit: "USD", Supported: true, Kind: analyzer.KindObjectStore, Detail: storage},
			{Name: "Amazon Elastic Compute Cloud - Compute", Cost: decimal.RequireFromString("1234.5"), Unit: "USD", Supported: true, Kind: analyzer.KindCompute, Detail: compute},
			{Name: "Mystery", Cost: decimal.RequireFromString("0.25"), Unit: "USD", Note: "In-depth analysis not supported yet"},
		},
		Skipped: []discovery.SkippedService{{Name: "Tax", Reason: discovery.SkipBlacklisted}},
	}
}

func TestJSONReporter_Generate(t *testing.T) {
	var buf bytes.Buffer
	r := &JSONReporter{Writer: &buf}

	if err := r.Generate(sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	period := decoded["period"].(map[string]any)
	if period["start"] != "2024-06-01" || period["end"] != "2024-06-30" {
		t.Fatalf("unexpected period: %v", period)
	}
	services := decoded["services"].([]any)
	if len(services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(services))
	}
	first := services[0].(map[string]any)
	if first["cost"] != 7.5 {
		t.Fatalf("expected numeric cost 7.5, got %v", first["cost"])
	}
	detail := first["detail"].(map[string]any)
	if _, ok := detail["details"]; !ok {
		t.Fatal("expected details for detail-mode record")
	}
	second := services[1].(map[string]any)
	if _, ok := second["detail"].(map[string]any)["details"]; ok {
		t.Fatal("expected details omitted when not requested")
	}
}

func TestJSONReporter_PreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONReporter{Writer: &buf}).Generate(sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Simple Storage") > strings.Index(out, "Compute Cloud") {
		t.Fatal("expected JSON to keep pipeline order")
	}
	if strings.Index(out, "total_instances") > strings.Index(out, "total_vcpu") {
		t.Fatal("expected summary keys in insertion order")
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteError(&buf, errors.New(`cost query failed: "denied"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected a single line, got %q", out)
	}
	var payload ErrorPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Error != `cost query failed: "denied"` {
		t.Fatalf("unexpected error text: %q", payload.Error)
	}
}
