package discovery

import (
	"reflect"
	"testing"
)

var testAliases = map[string][]string{
	"s3":  {"amazon simple storage service", "amazon s3"},
	"ec2": {"amazon elastic compute cloud", "amazon ec2"},
}

var billed = []string{
	"Amazon Simple Storage Service",
	"Amazon Elastic Compute Cloud - Compute",
	"Amazon Route 53",
	"Tax",
	"AWS Lambda",
}

func kept(f *Filter, names []string) []string {
	var out []string
	for _, n := range names {
		if ok, _ := f.Keep(n); ok {
			out = append(out, n)
		}
	}
	return out
}

func TestFilter_NoAllowListKeepsAllButBlacklist(t *testing.T) {
	f := NewFilter([]string{"tax", "taxes"}, testAliases, nil)

	got := kept(f, billed)
	if len(got) != 4 {
		t.Fatalf("expected 4 services kept, got %v", got)
	}
	if ok, reason := f.Keep("Tax"); ok || reason != SkipBlacklisted {
		t.Fatalf("expected Tax blacklisted, got %v %q", ok, reason)
	}
}

func TestFilter_AliasClosure(t *testing.T) {
	short := NewFilter(nil, testAliases, []string{"s3"})
	full := NewFilter(nil, testAliases, []string{"amazon simple storage service"})

	a, b := kept(short, billed), kept(full, billed)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("alias and full name disagree: %v vs %v", a, b)
	}
	if len(a) != 1 || a[0] != "Amazon Simple Storage Service" {
		t.Fatalf("expected only S3 kept, got %v", a)
	}
}

func TestFilter_AliasExpansionIdempotent(t *testing.T) {
	once := NewFilter(nil, testAliases, []string{"s3"})
	twice := NewFilter(nil, testAliases, append([]string{"s3"}, once.Fragments()...))

	if !reflect.DeepEqual(once.Fragments(), twice.Fragments()) {
		t.Fatalf("expansion not idempotent: %v vs %v", once.Fragments(), twice.Fragments())
	}
}

func TestFilter_BlacklistPrecedesAllowList(t *testing.T) {
	f := NewFilter([]string{"tax"}, nil, []string{"tax", "lambda"})

	if ok, reason := f.Keep("Tax"); ok || reason != SkipBlacklisted {
		t.Fatalf("expected blacklist to win, got %v %q", ok, reason)
	}
	if ok, _ := f.Keep("AWS Lambda"); !ok {
		t.Fatal("expected AWS Lambda kept")
	}
	if ok, reason := f.Keep("Amazon Route 53"); ok || reason != SkipNotSelected {
		t.Fatalf("expected Route 53 not selected, got %v %q", ok, reason)
	}
}

func TestFilter_CaseInsensitive(t *testing.T) {
	f := NewFilter([]string{"TAX"}, map[string][]string{"EC2": {"Amazon Elastic Compute Cloud"}}, []string{" Ec2 "})

	if ok, _ := f.Keep("amazon elastic compute cloud - compute"); !ok {
		t.Fatal("expected case-insensitive alias match")
	}
	if ok, _ := f.Keep("Sales TAX"); ok {
		t.Fatal("expected case-insensitive blacklist match")
	}
}

func TestParseServices(t *testing.T) {
	got := ParseServices(" s3, ,ec2 ,lambda,")
	want := []string{"s3", "ec2", "lambda"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if ParseServices("") != nil {
		t.Fatal("expected nil for empty input")
	}
}
