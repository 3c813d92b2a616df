package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// maxDescribeClusters is the DescribeClusters limit on cluster ARNs per call.
const maxDescribeClusters = 100

// ECSAPI is the minimal interface for ECS operations.
type ECSAPI interface {
	ListClusters(ctx context.Context, input *ecs.ListClustersInput, opts ...func(*ecs.Options)) (*ecs.ListClustersOutput, error)
	DescribeClusters(ctx context.Context, input *ecs.DescribeClustersInput, opts ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error)
}

// ECSAnalyzer counts clusters and, in detail mode, their services and tasks.
type ECSAnalyzer struct {
	client ECSAPI
}

// NewECSAnalyzer creates an analyzer for ECS clusters.
func NewECSAnalyzer(client ECSAPI) *ECSAnalyzer {
	return &ECSAnalyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *ECSAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindContainerOrchestrator
}

// Analyze lists cluster ARNs and describes them in batches when details are requested.
func (a *ECSAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var arns []string
	paginator := ecs.NewListClustersPaginator(a.client, &ecs.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list ECS clusters: %w", err)
		}
		arns = append(arns, page.ClusterArns...)
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total_clusters", analyzer.Int(len(arns)))
	if !includeDetails {
		return rec, nil
	}

	described := make(map[string]ecstypes.Cluster, len(arns))
	for _, batch := range batchIDs(arns, maxDescribeClusters) {
		out, err := a.client.DescribeClusters(ctx, &ecs.DescribeClustersInput{Clusters: batch})
		if err != nil {
			slog.Warn("Failed to describe ECS clusters", "count", len(batch), "error", err)
			continue
		}
		for _, c := range out.Clusters {
			described[deref(c.ClusterArn)] = c
		}
	}

	var services, running, pending, instances int
	for _, arn := range arns {
		c, ok := described[arn]
		if !ok {
			rec.AddDetail(analyzer.NewMap().
				Set("cluster_arn", analyzer.String(arn)).
				Set("status", analyzer.String("unknown")))
			continue
		}
		services += int(c.ActiveServicesCount)
		running += int(c.RunningTasksCount)
		pending += int(c.PendingTasksCount)
		instances += int(c.RegisteredContainerInstancesCount)
		rec.AddDetail(analyzer.NewMap().
			Set("cluster_arn", analyzer.String(arn)).
			Set("name", analyzer.StringPtr(c.ClusterName)).
			Set("status", analyzer.StringPtr(c.Status)).
			Set("service_count", analyzer.Int(c.ActiveServicesCount)).
			Set("task_count", analyzer.Int(c.RunningTasksCount)).
			Set("pending_task_count", analyzer.Int(c.PendingTasksCount)).
			Set("container_instance_count", analyzer.Int(c.RegisteredContainerInstancesCount)))
	}

	rec.Summary.
		Set("total_services", analyzer.Int(services)).
		Set("total_running_tasks", analyzer.Int(running)).
		Set("total_pending_tasks", analyzer.Int(pending)).
		Set("total_container_instances", analyzer.Int(instances))
	return rec, nil
}
