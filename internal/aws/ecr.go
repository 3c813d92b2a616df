package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// ECRAPI is the minimal interface for ECR operations.
type ECRAPI interface {
	DescribeRepositories(ctx context.Context, input *ecr.DescribeRepositoriesInput, opts ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	ListImages(ctx context.Context, input *ecr.ListImagesInput, opts ...func(*ecr.Options)) (*ecr.ListImagesOutput, error)
}

// ECRAnalyzer counts repositories and, in detail mode, their images.
type ECRAnalyzer struct {
	client      ECRAPI
	concurrency int
}

// NewECRAnalyzer creates an analyzer for ECR repositories.
func NewECRAnalyzer(client ECRAPI, opts Options) *ECRAnalyzer {
	return &ECRAnalyzer{client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *ECRAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindContainerRegistry
}

// Analyze lists repositories.
func (a *ECRAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var repos []ecrtypes.Repository
	paginator := ecr.NewDescribeRepositoriesPaginator(a.client, &ecr.DescribeRepositoriesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list ECR repositories: %w", err)
		}
		repos = append(repos, page.Repositories...)
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total_repositories", analyzer.Int(len(repos)))
	if !includeDetails {
		return rec, nil
	}

	counts := collectEach(ctx, a.concurrency, repos, func(ctx context.Context, r ecrtypes.Repository) analyzer.Value {
		n, err := a.countImages(ctx, deref(r.RepositoryName))
		if err != nil {
			slog.Debug("Failed to list ECR images", "repository", deref(r.RepositoryName), "error", err)
			return analyzer.Null{}
		}
		return analyzer.Int(n)
	})

	var totalImages analyzer.Int
	for i, r := range repos {
		if n, ok := counts[i].(analyzer.Int); ok {
			totalImages += n
		}
		rec.AddDetail(analyzer.NewMap().
			Set("name", analyzer.StringPtr(r.RepositoryName)).
			Set("uri", analyzer.StringPtr(r.RepositoryUri)).
			Set("created_at", timeValue(r.CreatedAt)).
			Set("image_count", counts[i]))
	}
	rec.Summary.Set("total_images", totalImages)
	return rec, nil
}

func (a *ECRAnalyzer) countImages(ctx context.Context, repo string) (int, error) {
	count := 0
	paginator := ecr.NewListImagesPaginator(a.client, &ecr.ListImagesInput{RepositoryName: &repo})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		count += len(page.ImageIds)
	}
	return count, nil
}
