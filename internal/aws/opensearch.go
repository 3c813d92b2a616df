package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// maxDescribeDomains is the DescribeDomains limit on domain names per call.
const maxDescribeDomains = 5

// OpenSearchAPI is the minimal interface for OpenSearch operations.
type OpenSearchAPI interface {
	ListDomainNames(ctx context.Context, input *opensearch.ListDomainNamesInput, opts ...func(*opensearch.Options)) (*opensearch.ListDomainNamesOutput, error)
	DescribeDomains(ctx context.Context, input *opensearch.DescribeDomainsInput, opts ...func(*opensearch.Options)) (*opensearch.DescribeDomainsOutput, error)
}

// OpenSearchAnalyzer reports search domains and node capacity.
type OpenSearchAnalyzer struct {
	client  OpenSearchAPI
	catalog *Catalog
}

// NewOpenSearchAnalyzer creates an analyzer for OpenSearch domains.
func NewOpenSearchAnalyzer(client OpenSearchAPI, types InstanceTypesAPI) *OpenSearchAnalyzer {
	return &OpenSearchAnalyzer{client: client, catalog: NewCatalog(types)}
}

// Kind returns the kind of service this analyzer handles.
func (a *OpenSearchAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindSearchCluster
}

// Analyze lists domains, describes them in batches and enriches data and
// dedicated master node types.
func (a *OpenSearchAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	out, err := a.client.ListDomainNames(ctx, &opensearch.ListDomainNamesInput{})
	if err != nil {
		return nil, fmt.Errorf("list OpenSearch domains: %w", err)
	}
	names := make([]string, 0, len(out.DomainNames))
	for _, d := range out.DomainNames {
		names = append(names, deref(d.DomainName))
	}

	var domains []ostypes.DomainStatus
	for _, batch := range batchIDs(names, maxDescribeDomains) {
		resp, err := a.client.DescribeDomains(ctx, &opensearch.DescribeDomainsInput{DomainNames: batch})
		if err != nil {
			slog.Warn("Failed to describe OpenSearch domains", "domains", batch, "error", err)
			continue
		}
		domains = append(domains, resp.DomainStatusList...)
	}

	nodesByType := make(map[string]int)
	byEngine := make(map[string]int)
	rec := analyzer.NewRecord(includeDetails)
	for _, d := range domains {
		byEngine[orUnknown(deref(d.EngineVersion))]++

		detail := analyzer.NewMap().
			Set("domain_name", analyzer.StringPtr(d.DomainName)).
			Set("engine_version", analyzer.StringPtr(d.EngineVersion)).
			Set("endpoint", domainEndpoint(d))

		cfg := d.ClusterConfig
		if cfg == nil {
			rec.AddDetail(detail.Set("cluster_config", analyzer.Null{}))
			continue
		}
		dataType := string(cfg.InstanceType)
		dataCount := derefInt32(cfg.InstanceCount)
		nodesByType[dataType] += dataCount

		masterCount := 0
		if derefBool(cfg.DedicatedMasterEnabled) {
			masterCount = derefInt32(cfg.DedicatedMasterCount)
			nodesByType[string(cfg.DedicatedMasterType)] += masterCount
		}

		rec.AddDetail(detail.Set("cluster_config", analyzer.NewMap().
			Set("instance_type", analyzer.String(dataType)).
			Set("instance_count", analyzer.Int(dataCount)).
			Set("dedicated_master_type", analyzer.String(string(cfg.DedicatedMasterType))).
			Set("dedicated_master_count", analyzer.Int(masterCount)).
			Set("warm_enabled", analyzer.Bool(derefBool(cfg.WarmEnabled))).
			Set("warm_type", analyzer.String(string(cfg.WarmType))).
			Set("warm_count", analyzer.Int(derefInt32(cfg.WarmCount)))))
	}
	enrichment := Enrich(ctx, a.catalog, ruleSearchNode, nodesByType)

	rec.Summary.
		Set("total_domains", analyzer.Int(len(names))).
		Set("described_domains", analyzer.Int(len(domains))).
		Set("by_engine_version", analyzer.Counts(byEngine)).
		Set("total_nodes", analyzer.Int(enrichment.TotalCount))
	enrichment.WriteSummary(rec.Summary)
	return rec, nil
}

func domainEndpoint(d ostypes.DomainStatus) analyzer.Value {
	if d.Endpoint != nil {
		return analyzer.String(*d.Endpoint)
	}
	if vpc, ok := d.Endpoints["vpc"]; ok {
		return analyzer.String(vpc)
	}
	return analyzer.Null{}
}
