package aws

import (
	"context"
	"fmt"
	"sync"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

type mockS3Client struct {
	buckets   []s3types.Bucket
	locations map[string]s3types.BucketLocationConstraint

	mu            sync.Mutex
	locationCalls int
}

func (m *mockS3Client) ListBuckets(_ context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	return &s3.ListBucketsOutput{Buckets: m.buckets}, nil
}

func (m *mockS3Client) GetBucketLocation(_ context.Context, input *s3.GetBucketLocationInput, _ ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	m.mu.Lock()
	m.locationCalls++
	m.mu.Unlock()

	loc, ok := m.locations[*input.Bucket]
	if !ok {
		return nil, fmt.Errorf("AccessDenied")
	}
	return &s3.GetBucketLocationOutput{LocationConstraint: loc}, nil
}

func TestS3Analyzer_SummaryOnly(t *testing.T) {
	mock := &mockS3Client{buckets: []s3types.Bucket{{Name: awssdk.String("a")}, {Name: awssdk.String("b")}}}

	rec, err := NewS3Analyzer(mock, Options{}).Analyze(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intAt(t, rec.Summary, "total_buckets"); got != 2 {
		t.Fatalf("expected 2 buckets, got %d", got)
	}
	if mock.locationCalls != 0 {
		t.Fatalf("expected no per-bucket calls without details, got %d", mock.locationCalls)
	}
	if rec.Details != nil {
		t.Fatal("expected nil details")
	}
}

func TestS3Analyzer_DetailsToleratePerBucketFailure(t *testing.T) {
	mock := &mockS3Client{
		buckets: []s3types.Bucket{
			{Name: awssdk.String("logs")},
			{Name: awssdk.String("legacy")},
			{Name: awssdk.String("private")},
		},
		locations: map[string]s3types.BucketLocationConstraint{
			"logs":   "",
			"legacy": s3types.BucketLocationConstraintEu,
		},
	}

	rec, err := NewS3Analyzer(mock, Options{DetailConcurrency: 2}).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Details) != 3 {
		t.Fatalf("expected 3 detail entries, got %d", len(rec.Details))
	}

	want := []analyzer.Value{analyzer.String("us-east-1"), analyzer.String("eu-west-1"), analyzer.Null{}}
	for i, d := range rec.Details {
		region, _ := d.(*analyzer.Map).Get("region")
		if region != want[i] {
			t.Fatalf("bucket %d: expected region %v, got %v", i, want[i], region)
		}
	}
	if got := intAt(t, rec.Summary, "by_region", "unknown"); got != 1 {
		t.Fatalf("expected 1 bucket with unknown region, got %d", got)
	}
}
