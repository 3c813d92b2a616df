package aws

import (
	"context"
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// maxTypesPerCall is the DescribeInstanceTypes limit on explicit type names.
const maxTypesPerCall = 100

// InstanceTypesAPI is the minimal interface for instance type lookups.
type InstanceTypesAPI interface {
	DescribeInstanceTypes(ctx context.Context, input *ec2.DescribeInstanceTypesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

// Catalog resolves canonical instance type names to their vCPU and memory.
// Results are not cached between Resolve calls.
type Catalog struct {
	client    InstanceTypesAPI
	batchSize int
}

// NewCatalog creates a catalog backed by the given EC2 client.
func NewCatalog(client InstanceTypesAPI) *Catalog {
	return &Catalog{client: client, batchSize: maxTypesPerCall}
}

// Resolution is the outcome of one Resolve call. Types missing from Specs
// could not be resolved, either because the lookup failed or because the
// name is not a known instance type.
type Resolution struct {
	Specs  map[string]TypeSpec
	Failed []string
}

// Lookup returns the spec for a canonical type name.
func (r Resolution) Lookup(id string) (TypeSpec, bool) {
	spec, ok := r.Specs[id]
	return spec, ok
}

// Resolve deduplicates ids and looks them up in batches of at most 100.
// A failed batch is logged and its ids are reported in Failed; it never
// fails the whole call.
func (c *Catalog) Resolve(ctx context.Context, ids []string) Resolution {
	res := Resolution{Specs: make(map[string]TypeSpec)}

	unique := dedupeSorted(ids)
	if len(unique) == 0 || c == nil || c.client == nil {
		res.Failed = unique
		return res
	}

	batches := batchIDs(unique, c.batchSize)
	for batchIdx, batch := range batches {
		slog.Debug("Describing instance types", "batch", batchIdx+1, "total_batches", len(batches), "count", len(batch))

		types := make([]ec2types.InstanceType, 0, len(batch))
		for _, id := range batch {
			types = append(types, ec2types.InstanceType(id))
		}

		specs, err := c.describeBatch(ctx, types)
		if err != nil {
			slog.Warn("Failed to describe instance types", "types", batch, "error", err)
			res.Failed = append(res.Failed, batch...)
			continue
		}
		for id, spec := range specs {
			res.Specs[id] = spec
		}
		for _, id := range batch {
			if _, ok := specs[id]; !ok {
				res.Failed = append(res.Failed, id)
			}
		}
	}
	return res
}

func (c *Catalog) describeBatch(ctx context.Context, types []ec2types.InstanceType) (map[string]TypeSpec, error) {
	specs := make(map[string]TypeSpec, len(types))
	paginator := ec2.NewDescribeInstanceTypesPaginator(c.client, &ec2.DescribeInstanceTypesInput{
		InstanceTypes: types,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, it := range page.InstanceTypes {
			specs[string(it.InstanceType)] = typeSpecFromInfo(it)
		}
	}
	return specs, nil
}

func typeSpecFromInfo(it ec2types.InstanceTypeInfo) TypeSpec {
	var spec TypeSpec
	if it.VCpuInfo != nil {
		spec.VCPU = derefInt32(it.VCpuInfo.DefaultVCpus)
	}
	if it.MemoryInfo != nil {
		spec.MemoryMiB = int(derefInt64(it.MemoryInfo.SizeInMiB))
	}
	if it.ProcessorInfo != nil {
		for _, a := range it.ProcessorInfo.SupportedArchitectures {
			spec.Architectures = append(spec.Architectures, string(a))
		}
	}
	return spec
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
