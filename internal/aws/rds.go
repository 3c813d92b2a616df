package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// engineDocDB is reported by the RDS API for DocumentDB instances, which are
// billed and analyzed separately.
const engineDocDB = "docdb"

// RDSAPI is the minimal interface for RDS operations.
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, input *rds.DescribeDBInstancesInput, opts ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// RDSAnalyzer reports RDS DB instances with storage and enriched capacity.
type RDSAnalyzer struct {
	client  RDSAPI
	catalog *Catalog
}

// NewRDSAnalyzer creates an analyzer for RDS instances.
func NewRDSAnalyzer(client RDSAPI, types InstanceTypesAPI) *RDSAnalyzer {
	return &RDSAnalyzer{client: client, catalog: NewCatalog(types)}
}

// Kind returns the kind of service this analyzer handles.
func (a *RDSAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindRelationalStore
}

// Analyze lists DB instances and aggregates them by engine and class.
func (a *RDSAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	instances, err := a.listDBInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list RDS instances: %w", err)
	}

	byEngine := make(map[string]int)
	byClass := make(map[string]int)
	totalStorage := 0
	multiAZ := 0
	for _, db := range instances {
		byEngine[orUnknown(deref(db.Engine))]++
		byClass[deref(db.DBInstanceClass)]++
		totalStorage += derefInt32(db.AllocatedStorage)
		if derefBool(db.MultiAZ) {
			multiAZ++
		}
	}
	enrichment := Enrich(ctx, a.catalog, ruleDBClass, byClass)

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_instances", analyzer.Int(len(instances))).
		Set("total_allocated_storage_gib", analyzer.Int(totalStorage)).
		Set("multi_az_instances", analyzer.Int(multiAZ))
	enrichment.WriteSummary(rec.Summary)
	rec.Summary.
		Set("by_engine", analyzer.Counts(byEngine)).
		Set("by_class", analyzer.Counts(byClass))

	if !includeDetails {
		return rec, nil
	}
	for _, db := range instances {
		ec2Type, spec, resolved := enrichment.SpecFor(deref(db.DBInstanceClass))
		var endpoint analyzer.Value = analyzer.Null{}
		if db.Endpoint != nil {
			endpoint = analyzer.StringPtr(db.Endpoint.Address)
		}
		rec.AddDetail(analyzer.NewMap().
			Set("id", analyzer.StringPtr(db.DBInstanceIdentifier)).
			Set("class", analyzer.StringPtr(db.DBInstanceClass)).
			Set("engine", analyzer.StringPtr(db.Engine)).
			Set("engine_version", analyzer.StringPtr(db.EngineVersion)).
			Set("status", analyzer.StringPtr(db.DBInstanceStatus)).
			Set("multi_az", analyzer.Bool(derefBool(db.MultiAZ))).
			Set("allocated_storage_gib", analyzer.Int(derefInt32(db.AllocatedStorage))).
			Set("endpoint", endpoint).
			Set("ec2_instance_type", analyzer.String(ec2Type)).
			Set("vCPU", analyzer.Int(spec.VCPU)).
			Set("memory_mib", analyzer.Int(spec.MemoryMiB)).
			Set("resolved", analyzer.Bool(resolved)))
	}
	return rec, nil
}

func (a *RDSAnalyzer) listDBInstances(ctx context.Context) ([]rdstypes.DBInstance, error) {
	var instances []rdstypes.DBInstance
	paginator := rds.NewDescribeDBInstancesPaginator(a.client, &rds.DescribeDBInstancesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, db := range page.DBInstances {
			if deref(db.Engine) == engineDocDB {
				continue
			}
			instances = append(instances, db)
		}
	}
	return instances, nil
}
