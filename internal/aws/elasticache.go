package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	ectypes "github.com/aws/aws-sdk-go-v2/service/elasticache/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// ElastiCacheAPI is the minimal interface for ElastiCache operations.
type ElastiCacheAPI interface {
	DescribeCacheClusters(ctx context.Context, input *elasticache.DescribeCacheClustersInput, opts ...func(*elasticache.Options)) (*elasticache.DescribeCacheClustersOutput, error)
}

// ElastiCacheAnalyzer reports cache clusters and node capacity.
type ElastiCacheAnalyzer struct {
	client  ElastiCacheAPI
	catalog *Catalog
}

// NewElastiCacheAnalyzer creates an analyzer for ElastiCache clusters.
func NewElastiCacheAnalyzer(client ElastiCacheAPI, types InstanceTypesAPI) *ElastiCacheAnalyzer {
	return &ElastiCacheAnalyzer{client: client, catalog: NewCatalog(types)}
}

// Kind returns the kind of service this analyzer handles.
func (a *ElastiCacheAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindInMemoryCache
}

// Analyze lists clusters with node info and enriches node types.
func (a *ElastiCacheAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var clusters []ectypes.CacheCluster
	paginator := elasticache.NewDescribeCacheClustersPaginator(a.client, &elasticache.DescribeCacheClustersInput{
		ShowCacheNodeInfo: awssdk.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list ElastiCache clusters: %w", err)
		}
		clusters = append(clusters, page.CacheClusters...)
	}

	byEngine := make(map[string]int)
	nodesByType := make(map[string]int)
	rec := analyzer.NewRecord(includeDetails)
	for _, c := range clusters {
		byEngine[orUnknown(deref(c.Engine))]++
		nodeType, nodes := cacheNodes(c)
		nodesByType[nodeType] += nodes

		rec.AddDetail(analyzer.NewMap().
			Set("cache_cluster_id", analyzer.StringPtr(c.CacheClusterId)).
			Set("replication_group_id", analyzer.StringPtr(c.ReplicationGroupId)).
			Set("engine", analyzer.StringPtr(c.Engine)).
			Set("engine_version", analyzer.StringPtr(c.EngineVersion)).
			Set("num_cache_nodes", analyzer.Int(nodes)).
			Set("status", analyzer.StringPtr(c.CacheClusterStatus)).
			Set("cache_node_type", analyzer.String(nodeType)))
	}
	enrichment := Enrich(ctx, a.catalog, ruleCacheNode, nodesByType)

	rec.Summary.
		Set("total_clusters", analyzer.Int(len(clusters))).
		Set("by_engine", analyzer.Counts(byEngine)).
		Set("total_nodes", analyzer.Int(enrichment.TotalCount))
	enrichment.WriteSummary(rec.Summary)
	return rec, nil
}

// cacheNodes returns the node type and node count of a cluster, falling back
// to the node list when the cluster-level fields are empty.
func cacheNodes(c ectypes.CacheCluster) (string, int) {
	nodeType := deref(c.CacheNodeType)
	count := derefInt32(c.NumCacheNodes)
	if count == 0 {
		count = len(c.CacheNodes)
	}
	return nodeType, count
}
