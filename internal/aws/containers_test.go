package aws

import (
	"context"
	"fmt"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

type mockECRClient struct {
	repos  []ecrtypes.Repository
	images map[string]int
}

func (m *mockECRClient) DescribeRepositories(_ context.Context, _ *ecr.DescribeRepositoriesInput, _ ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error) {
	return &ecr.DescribeRepositoriesOutput{Repositories: m.repos}, nil
}

func (m *mockECRClient) ListImages(_ context.Context, input *ecr.ListImagesInput, _ ...func(*ecr.Options)) (*ecr.ListImagesOutput, error) {
	n, ok := m.images[*input.RepositoryName]
	if !ok {
		return nil, fmt.Errorf("RepositoryNotFoundException")
	}
	return &ecr.ListImagesOutput{ImageIds: make([]ecrtypes.ImageIdentifier, n)}, nil
}

func TestECRAnalyzer_ImageCounts(t *testing.T) {
	mock := &mockECRClient{
		repos:  []ecrtypes.Repository{{RepositoryName: awssdk.String("api")}, {RepositoryName: awssdk.String("gone")}},
		images: map[string]int{"api": 4},
	}

	rec, err := NewECRAnalyzer(mock, Options{}).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intAt(t, rec.Summary, "total_repositories"); got != 2 {
		t.Fatalf("expected 2 repositories, got %d", got)
	}
	if got := intAt(t, rec.Summary, "total_images"); got != 4 {
		t.Fatalf("expected 4 images, got %d", got)
	}
	gone, _ := rec.Details[1].(*analyzer.Map).Get("image_count")
	if _, ok := gone.(analyzer.Null); !ok {
		t.Fatalf("expected null image_count for failed repository, got %v", gone)
	}
}

type mockECSClient struct {
	arns        []string
	clusters    map[string]ecstypes.Cluster
	describeErr error
}

func (m *mockECSClient) ListClusters(_ context.Context, _ *ecs.ListClustersInput, _ ...func(*ecs.Options)) (*ecs.ListClustersOutput, error) {
	return &ecs.ListClustersOutput{ClusterArns: m.arns}, nil
}

func (m *mockECSClient) DescribeClusters(_ context.Context, input *ecs.DescribeClustersInput, _ ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	out := &ecs.DescribeClustersOutput{}
	for _, arn := range input.Clusters {
		if c, ok := m.clusters[arn]; ok {
			out.Clusters = append(out.Clusters, c)
		}
	}
	return out, nil
}

func TestECSAnalyzer_Details(t *testing.T) {
	mock := &mockECSClient{
		arns: []string{"arn:a", "arn:b"},
		clusters: map[string]ecstypes.Cluster{
			"arn:a": {ClusterArn: awssdk.String("arn:a"), Status: awssdk.String("ACTIVE"), ActiveServicesCount: 3, RunningTasksCount: 7},
		},
	}

	rec, err := NewECSAnalyzer(mock).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intAt(t, rec.Summary, "total_clusters"); got != 2 {
		t.Fatalf("expected 2 clusters, got %d", got)
	}
	if got := intAt(t, rec.Summary, "total_running_tasks"); got != 7 {
		t.Fatalf("expected 7 tasks, got %d", got)
	}
	missing, _ := rec.Details[1].(*analyzer.Map).Get("status")
	if missing != analyzer.String("unknown") {
		t.Fatalf("expected undescribed cluster marked unknown, got %v", missing)
	}
}

func TestECSAnalyzer_DescribeFailureKeepsCount(t *testing.T) {
	mock := &mockECSClient{arns: []string{"arn:a"}, describeErr: fmt.Errorf("throttled")}

	rec, err := NewECSAnalyzer(mock).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("describe failures must not fail the analyzer: %v", err)
	}
	if got := intAt(t, rec.Summary, "total_clusters"); got != 1 {
		t.Fatalf("expected 1 cluster, got %d", got)
	}
}

type mockEKSClient struct {
	names    []string
	clusters map[string]*ekstypes.Cluster
}

func (m *mockEKSClient) ListClusters(_ context.Context, _ *eks.ListClustersInput, _ ...func(*eks.Options)) (*eks.ListClustersOutput, error) {
	return &eks.ListClustersOutput{Clusters: m.names}, nil
}

func (m *mockEKSClient) DescribeCluster(_ context.Context, input *eks.DescribeClusterInput, _ ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	c, ok := m.clusters[*input.Name]
	if !ok {
		return nil, fmt.Errorf("ResourceNotFoundException")
	}
	return &eks.DescribeClusterOutput{Cluster: c}, nil
}

func TestEKSAnalyzer_ByVersion(t *testing.T) {
	mock := &mockEKSClient{
		names: []string{"prod", "staging", "broken"},
		clusters: map[string]*ekstypes.Cluster{
			"prod":    {Name: awssdk.String("prod"), Status: ekstypes.ClusterStatusActive, Version: awssdk.String("1.30")},
			"staging": {Name: awssdk.String("staging"), Status: ekstypes.ClusterStatusActive, Version: awssdk.String("1.30")},
		},
	}

	rec, err := NewEKSAnalyzer(mock, Options{}).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intAt(t, rec.Summary, "by_version", "1.30"); got != 2 {
		t.Fatalf("expected 2 clusters on 1.30, got %d", got)
	}
	if got := intAt(t, rec.Summary, "by_version", "unknown"); got != 1 {
		t.Fatalf("expected 1 unknown cluster, got %d", got)
	}
	if name, _ := rec.Details[2].(*analyzer.Map).Get("name"); name != analyzer.String("broken") {
		t.Fatalf("expected details in listing order, got %v", name)
	}
}

func TestEKSAnalyzer_NoDetails(t *testing.T) {
	mock := &mockEKSClient{names: []string{"prod"}}
	rec, err := NewEKSAnalyzer(mock, Options{}).Analyze(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rec.Summary.Get("by_version"); ok {
		t.Fatal("expected no per-cluster breakdown without details")
	}
}
