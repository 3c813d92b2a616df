package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// EC2API is the minimal interface for EC2 instance operations.
type EC2API interface {
	InstanceTypesAPI
	DescribeInstances(ctx context.Context, input *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// ComputeAnalyzer reports the EC2 instance fleet with vCPU and memory per
// lifecycle and architecture.
type ComputeAnalyzer struct {
	client  EC2API
	catalog *Catalog
}

// NewComputeAnalyzer creates an analyzer for EC2 instances.
func NewComputeAnalyzer(client EC2API) *ComputeAnalyzer {
	return &ComputeAnalyzer{client: client, catalog: NewCatalog(client)}
}

// Kind returns the kind of service this analyzer handles.
func (a *ComputeAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindCompute
}

type instanceInfo struct {
	id           string
	name         string
	instanceType string
	state        string
	lifecycle    string
	architecture string
}

type capacity struct {
	count     int
	vcpu      int
	memoryMiB int
}

func (c *capacity) add(vcpu, mem int) {
	c.count++
	c.vcpu += vcpu
	c.memoryMiB += mem
}

// Analyze lists every instance and aggregates capacity.
func (a *ComputeAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	instances, err := a.listInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list EC2 instances: %w", err)
	}

	typeCounts := make(map[string]int)
	stateCounts := make(map[string]int)
	for _, inst := range instances {
		typeCounts[inst.instanceType]++
		stateCounts[orUnknown(inst.state)]++
	}
	enrichment := Enrich(ctx, a.catalog, ruleInstanceType, typeCounts)

	lifecycles := map[string]*capacity{LifecycleSpot: {}, LifecycleOnDemand: {}}
	byArch := make(map[string]*capacity)
	byArchLifecycle := make(map[string]map[string]*capacity)

	rec := analyzer.NewRecord(includeDetails)
	for _, inst := range instances {
		_, spec, resolved := enrichment.SpecFor(inst.instanceType)
		arch := inst.architecture
		if arch == "" {
			arch = architectureFromSupported(spec.Architectures)
		}

		lifecycles[inst.lifecycle].add(spec.VCPU, spec.MemoryMiB)
		if byArch[arch] == nil {
			byArch[arch] = &capacity{}
			byArchLifecycle[arch] = map[string]*capacity{LifecycleSpot: {}, LifecycleOnDemand: {}}
		}
		byArch[arch].add(spec.VCPU, spec.MemoryMiB)
		byArchLifecycle[arch][inst.lifecycle].add(spec.VCPU, spec.MemoryMiB)

		rec.AddDetail(analyzer.NewMap().
			Set("instance_id", analyzer.String(inst.id)).
			Set("name", analyzer.String(inst.name)).
			Set("type", analyzer.String(inst.instanceType)).
			Set("state", analyzer.String(inst.state)).
			Set("lifecycle", analyzer.String(inst.lifecycle)).
			Set("architecture", analyzer.String(arch)).
			Set("vCPU", analyzer.Int(spec.VCPU)).
			Set("memory_mib", analyzer.Int(spec.MemoryMiB)).
			Set("resolved", analyzer.Bool(resolved)))
	}

	rec.Summary.Set("total_instances", analyzer.Int(len(instances)))
	enrichment.WriteSummary(rec.Summary)
	rec.Summary.
		Set("total_spot", analyzer.Int(lifecycles[LifecycleSpot].count)).
		Set("total_on_demand", analyzer.Int(lifecycles[LifecycleOnDemand].count)).
		Set("spot", capacityMap(lifecycles[LifecycleSpot], false)).
		Set("on_demand", capacityMap(lifecycles[LifecycleOnDemand], false)).
		Set("by_state", analyzer.Counts(stateCounts))

	archSummary := analyzer.NewMap()
	crossTab := analyzer.NewMap()
	for _, arch := range sortedKeys(byArch) {
		archSummary.Set(arch, capacityMap(byArch[arch], true))
		spot := byArchLifecycle[arch][LifecycleSpot]
		onDemand := byArchLifecycle[arch][LifecycleOnDemand]
		crossTab.Set(arch, analyzer.NewMap().
			Set("spot_count", analyzer.Int(spot.count)).
			Set("on_demand_count", analyzer.Int(onDemand.count)).
			Set("spot_vCPU", analyzer.Int(spot.vcpu)).
			Set("spot_memory_mib", analyzer.Int(spot.memoryMiB)).
			Set("on_demand_vCPU", analyzer.Int(onDemand.vcpu)).
			Set("on_demand_memory_mib", analyzer.Int(onDemand.memoryMiB)))
	}
	rec.Summary.Set("architecture", archSummary)
	rec.Summary.Set("lifecycle_by_architecture", crossTab)

	return rec, nil
}

func (a *ComputeAnalyzer) listInstances(ctx context.Context) ([]instanceInfo, error) {
	var instances []instanceInfo
	paginator := ec2.NewDescribeInstancesPaginator(a.client, &ec2.DescribeInstancesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				info := instanceInfo{
					id:           deref(inst.InstanceId),
					name:         instanceName(inst.Tags),
					instanceType: string(inst.InstanceType),
					lifecycle:    LifecycleOnDemand,
					architecture: normalizeArchitecture(string(inst.Architecture)),
				}
				if inst.State != nil {
					info.state = string(inst.State.Name)
				}
				if inst.InstanceLifecycle == ec2types.InstanceLifecycleTypeSpot {
					info.lifecycle = LifecycleSpot
				}
				instances = append(instances, info)
			}
		}
	}
	return instances, nil
}

// normalizeArchitecture maps an instance-level architecture to arm, x86 or
// unknown. An empty input returns "" so the caller can fall back to the type.
func normalizeArchitecture(raw string) string {
	r := strings.ToLower(raw)
	switch {
	case r == "":
		return ""
	case strings.Contains(r, "arm") || strings.Contains(r, "aarch64"):
		return ArchARM
	case strings.Contains(r, "x86") || strings.Contains(r, "amd64") || r == "i386":
		return ArchX86
	default:
		return ArchUnknown
	}
}

// architectureFromSupported prefers arm when a type lists it.
func architectureFromSupported(supported []string) string {
	if len(supported) == 0 {
		return ArchUnknown
	}
	for _, s := range supported {
		if normalizeArchitecture(s) == ArchARM {
			return ArchARM
		}
	}
	return ArchX86
}

func instanceName(tags []ec2types.Tag) string {
	for _, tag := range tags {
		if deref(tag.Key) == "Name" {
			return deref(tag.Value)
		}
	}
	return ""
}

func capacityMap(c *capacity, withCount bool) *analyzer.Map {
	m := analyzer.NewMap()
	if withCount {
		m.Set("count", analyzer.Int(c.count))
	}
	return m.
		Set("vCPU", analyzer.Int(c.vcpu)).
		Set("memory_mib", analyzer.Int(c.memoryMiB))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
