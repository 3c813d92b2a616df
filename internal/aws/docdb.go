package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/docdb"
	docdbtypes "github.com/aws/aws-sdk-go-v2/service/docdb/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// DocDBAPI is the minimal interface for DocumentDB operations.
type DocDBAPI interface {
	DescribeDBClusters(ctx context.Context, input *docdb.DescribeDBClustersInput, opts ...func(*docdb.Options)) (*docdb.DescribeDBClustersOutput, error)
	DescribeDBInstances(ctx context.Context, input *docdb.DescribeDBInstancesInput, opts ...func(*docdb.Options)) (*docdb.DescribeDBInstancesOutput, error)
}

// DocDBAnalyzer reports DocumentDB clusters and their nodes.
type DocDBAnalyzer struct {
	client  DocDBAPI
	catalog *Catalog
}

// NewDocDBAnalyzer creates an analyzer for DocumentDB.
func NewDocDBAnalyzer(client DocDBAPI, types InstanceTypesAPI) *DocDBAnalyzer {
	return &DocDBAnalyzer{client: client, catalog: NewCatalog(types)}
}

// Kind returns the kind of service this analyzer handles.
func (a *DocDBAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindDocumentStore
}

func docdbEngineFilter() []docdbtypes.Filter {
	return []docdbtypes.Filter{{Name: awssdk.String("engine"), Values: []string{engineDocDB}}}
}

// Analyze lists clusters and instances and enriches instance classes.
func (a *DocDBAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var clusters []docdbtypes.DBCluster
	clusterPages := docdb.NewDescribeDBClustersPaginator(a.client, &docdb.DescribeDBClustersInput{Filters: docdbEngineFilter()})
	for clusterPages.HasMorePages() {
		page, err := clusterPages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list DocumentDB clusters: %w", err)
		}
		clusters = append(clusters, page.DBClusters...)
	}

	var instances []docdbtypes.DBInstance
	instancePages := docdb.NewDescribeDBInstancesPaginator(a.client, &docdb.DescribeDBInstancesInput{Filters: docdbEngineFilter()})
	for instancePages.HasMorePages() {
		page, err := instancePages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list DocumentDB instances: %w", err)
		}
		instances = append(instances, page.DBInstances...)
	}

	byCluster := make(map[string][]docdbtypes.DBInstance)
	byClass := make(map[string]int)
	for _, inst := range instances {
		byCluster[deref(inst.DBClusterIdentifier)] = append(byCluster[deref(inst.DBClusterIdentifier)], inst)
		byClass[deref(inst.DBInstanceClass)]++
	}
	enrichment := Enrich(ctx, a.catalog, ruleDBClass, byClass)

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_clusters", analyzer.Int(len(clusters))).
		Set("total_nodes", analyzer.Int(len(instances))).
		Set("by_instance_class", analyzer.Counts(byClass))
	enrichment.WriteSummary(rec.Summary)

	for _, c := range clusters {
		id := deref(c.DBClusterIdentifier)
		nodes := make(analyzer.List, 0, len(byCluster[id]))
		for _, inst := range byCluster[id] {
			var endpoint analyzer.Value = analyzer.Null{}
			if inst.Endpoint != nil {
				endpoint = analyzer.StringPtr(inst.Endpoint.Address)
			}
			nodes = append(nodes, analyzer.NewMap().
				Set("instance_id", analyzer.StringPtr(inst.DBInstanceIdentifier)).
				Set("class", analyzer.StringPtr(inst.DBInstanceClass)).
				Set("endpoint", endpoint).
				Set("status", analyzer.StringPtr(inst.DBInstanceStatus)))
		}
		rec.AddDetail(analyzer.NewMap().
			Set("cluster_identifier", analyzer.String(id)).
			Set("engine", analyzer.StringPtr(c.Engine)).
			Set("engine_version", analyzer.StringPtr(c.EngineVersion)).
			Set("status", analyzer.StringPtr(c.Status)).
			Set("instance_count", analyzer.Int(len(nodes))).
			Set("instances", nodes))
	}
	return rec, nil
}
