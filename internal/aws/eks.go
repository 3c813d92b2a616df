package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// EKSAPI is the minimal interface for EKS operations.
type EKSAPI interface {
	ListClusters(ctx context.Context, input *eks.ListClustersInput, opts ...func(*eks.Options)) (*eks.ListClustersOutput, error)
	DescribeCluster(ctx context.Context, input *eks.DescribeClusterInput, opts ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

// EKSAnalyzer counts clusters and, in detail mode, their status and version.
type EKSAnalyzer struct {
	client      EKSAPI
	concurrency int
}

// NewEKSAnalyzer creates an analyzer for EKS clusters.
func NewEKSAnalyzer(client EKSAPI, opts Options) *EKSAnalyzer {
	return &EKSAnalyzer{client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *EKSAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindManagedKubernetes
}

// Analyze lists cluster names.
func (a *EKSAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var names []string
	paginator := eks.NewListClustersPaginator(a.client, &eks.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list EKS clusters: %w", err)
		}
		names = append(names, page.Clusters...)
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total_clusters", analyzer.Int(len(names)))
	if !includeDetails {
		return rec, nil
	}

	clusters := collectEach(ctx, a.concurrency, names, func(ctx context.Context, name string) *ekstypes.Cluster {
		out, err := a.client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: &name})
		if err != nil {
			slog.Debug("Failed to describe EKS cluster", "cluster", name, "error", err)
			return nil
		}
		return out.Cluster
	})

	byVersion := make(map[string]int)
	for i, c := range clusters {
		if c == nil {
			byVersion["unknown"]++
			rec.AddDetail(analyzer.NewMap().
				Set("name", analyzer.String(names[i])).
				Set("status", analyzer.String("unknown")))
			continue
		}
		byVersion[orUnknown(deref(c.Version))]++
		rec.AddDetail(analyzer.NewMap().
			Set("name", analyzer.String(names[i])).
			Set("status", analyzer.String(string(c.Status))).
			Set("version", analyzer.StringPtr(c.Version)).
			Set("platform_version", analyzer.StringPtr(c.PlatformVersion)).
			Set("created_at", timeValue(c.CreatedAt)))
	}
	rec.Summary.Set("by_version", analyzer.Counts(byVersion))
	return rec, nil
}
