package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

const bucketSizeNote = "Size/object count not collected; use CloudWatch metrics or S3 Inventory for metrics."

// S3API is the minimal interface for S3 bucket operations.
type S3API interface {
	ListBuckets(ctx context.Context, input *s3.ListBucketsInput, opts ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, input *s3.GetBucketLocationInput, opts ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
}

// S3Analyzer counts buckets and, in detail mode, resolves each bucket's region.
type S3Analyzer struct {
	client      S3API
	concurrency int
}

// NewS3Analyzer creates an analyzer for S3 buckets.
func NewS3Analyzer(client S3API, opts Options) *S3Analyzer {
	return &S3Analyzer{client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *S3Analyzer) Kind() analyzer.Kind {
	return analyzer.KindObjectStore
}

// Analyze lists buckets. Sizes are never computed.
func (a *S3Analyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var buckets []s3types.Bucket
	paginator := s3.NewListBucketsPaginator(a.client, &s3.ListBucketsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list S3 buckets: %w", err)
		}
		buckets = append(buckets, page.Buckets...)
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total_buckets", analyzer.Int(len(buckets)))
	if !includeDetails {
		return rec, nil
	}

	regions := collectEach(ctx, a.concurrency, buckets, func(ctx context.Context, b s3types.Bucket) analyzer.Value {
		return a.bucketRegion(ctx, deref(b.Name))
	})

	byRegion := make(map[string]int)
	for i, b := range buckets {
		if r, ok := regions[i].(analyzer.String); ok {
			byRegion[string(r)]++
		} else {
			byRegion["unknown"]++
		}
		rec.AddDetail(analyzer.NewMap().
			Set("name", analyzer.StringPtr(b.Name)).
			Set("creation_date", timeValue(b.CreationDate)).
			Set("region", regions[i]).
			Set("size_bytes", analyzer.Null{}).
			Set("object_count", analyzer.Null{}).
			Set("note", analyzer.String(bucketSizeNote)))
	}
	rec.Summary.Set("by_region", analyzer.Counts(byRegion))
	return rec, nil
}

// bucketRegion returns the bucket's region or Null when it cannot be read.
func (a *S3Analyzer) bucketRegion(ctx context.Context, name string) analyzer.Value {
	out, err := a.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: &name})
	if err != nil {
		slog.Debug("Failed to get bucket location", "bucket", name, "error", err)
		return analyzer.Null{}
	}
	switch out.LocationConstraint {
	case "":
		return analyzer.String("us-east-1")
	case s3types.BucketLocationConstraintEu:
		return analyzer.String("eu-west-1")
	default:
		return analyzer.String(string(out.LocationConstraint))
	}
}
