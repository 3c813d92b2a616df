package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// NetworkAPI is the minimal interface for the EC2 networking calls.
type NetworkAPI interface {
	DescribeVpcs(ctx context.Context, input *ec2.DescribeVpcsInput, opts ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	DescribeSubnets(ctx context.Context, input *ec2.DescribeSubnetsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	DescribeNatGateways(ctx context.Context, input *ec2.DescribeNatGatewaysInput, opts ...func(*ec2.Options)) (*ec2.DescribeNatGatewaysOutput, error)
	DescribeInternetGateways(ctx context.Context, input *ec2.DescribeInternetGatewaysInput, opts ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error)
	DescribeRouteTables(ctx context.Context, input *ec2.DescribeRouteTablesInput, opts ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error)
	DescribeVpcEndpoints(ctx context.Context, input *ec2.DescribeVpcEndpointsInput, opts ...func(*ec2.Options)) (*ec2.DescribeVpcEndpointsOutput, error)
	DescribeSecurityGroups(ctx context.Context, input *ec2.DescribeSecurityGroupsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	DescribeAddresses(ctx context.Context, input *ec2.DescribeAddressesInput, opts ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
}

// VPCAnalyzer inventories VPCs and the resources attached to them.
type VPCAnalyzer struct {
	client NetworkAPI
}

// NewVPCAnalyzer creates an analyzer for VPC networking.
func NewVPCAnalyzer(client NetworkAPI) *VPCAnalyzer {
	return &VPCAnalyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *VPCAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindNetwork
}

// ec2Pager is satisfied by every generated EC2 paginator.
type ec2Pager[O any] interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*ec2.Options)) (O, error)
}

// countByVPC drains a paginator and tallies resources per VPC id.
func countByVPC[O any](ctx context.Context, p ec2Pager[O], vpcIDs func(O) []string) (map[string]int, error) {
	counts := make(map[string]int)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range vpcIDs(page) {
			counts[id]++
		}
	}
	return counts, nil
}

type subResource struct {
	summaryKey string
	detailKey  string
	count      func(ctx context.Context) (map[string]int, error)
}

func (a *VPCAnalyzer) subResources() []subResource {
	return []subResource{
		{"total_subnets", "subnet_count", func(ctx context.Context) (map[string]int, error) {
			return countByVPC(ctx, ec2.NewDescribeSubnetsPaginator(a.client, &ec2.DescribeSubnetsInput{}),
				func(out *ec2.DescribeSubnetsOutput) []string {
					ids := make([]string, 0, len(out.Subnets))
					for _, s := range out.Subnets {
						ids = append(ids, deref(s.VpcId))
					}
					return ids
				})
		}},
		{"total_nat_gateways", "nat_gateway_count", func(ctx context.Context) (map[string]int, error) {
			return countByVPC(ctx, ec2.NewDescribeNatGatewaysPaginator(a.client, &ec2.DescribeNatGatewaysInput{}),
				func(out *ec2.DescribeNatGatewaysOutput) []string {
					var ids []string
					for _, n := range out.NatGateways {
						if n.State == ec2types.NatGatewayStateDeleted {
							continue
						}
						ids = append(ids, deref(n.VpcId))
					}
					return ids
				})
		}},
		{"total_internet_gateways", "internet_gateway_count", func(ctx context.Context) (map[string]int, error) {
			return countByVPC(ctx, ec2.NewDescribeInternetGatewaysPaginator(a.client, &ec2.DescribeInternetGatewaysInput{}),
				func(out *ec2.DescribeInternetGatewaysOutput) []string {
					var ids []string
					for _, g := range out.InternetGateways {
						if len(g.Attachments) == 0 {
							ids = append(ids, "")
						}
						for _, att := range g.Attachments {
							ids = append(ids, deref(att.VpcId))
						}
					}
					return ids
				})
		}},
		{"total_route_tables", "route_table_count", func(ctx context.Context) (map[string]int, error) {
			return countByVPC(ctx, ec2.NewDescribeRouteTablesPaginator(a.client, &ec2.DescribeRouteTablesInput{}),
				func(out *ec2.DescribeRouteTablesOutput) []string {
					ids := make([]string, 0, len(out.RouteTables))
					for _, rt := range out.RouteTables {
						ids = append(ids, deref(rt.VpcId))
					}
					return ids
				})
		}},
		{"total_vpc_endpoints", "vpc_endpoint_count", func(ctx context.Context) (map[string]int, error) {
			return countByVPC(ctx, ec2.NewDescribeVpcEndpointsPaginator(a.client, &ec2.DescribeVpcEndpointsInput{}),
				func(out *ec2.DescribeVpcEndpointsOutput) []string {
					ids := make([]string, 0, len(out.VpcEndpoints))
					for _, ep := range out.VpcEndpoints {
						ids = append(ids, deref(ep.VpcId))
					}
					return ids
				})
		}},
		{"total_security_groups", "security_group_count", func(ctx context.Context) (map[string]int, error) {
			return countByVPC(ctx, ec2.NewDescribeSecurityGroupsPaginator(a.client, &ec2.DescribeSecurityGroupsInput{}),
				func(out *ec2.DescribeSecurityGroupsOutput) []string {
					ids := make([]string, 0, len(out.SecurityGroups))
					for _, sg := range out.SecurityGroups {
						ids = append(ids, deref(sg.VpcId))
					}
					return ids
				})
		}},
	}
}

// Analyze lists VPCs, then lists each sub-resource type once account-wide
// and groups it by VPC. A failed sub-resource listing is reported null.
func (a *VPCAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var vpcs []ec2types.Vpc
	paginator := ec2.NewDescribeVpcsPaginator(a.client, &ec2.DescribeVpcsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe VPCs: %w", err)
		}
		vpcs = append(vpcs, page.Vpcs...)
	}

	defaults := 0
	for _, v := range vpcs {
		if derefBool(v.IsDefault) {
			defaults++
		}
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_vpcs", analyzer.Int(len(vpcs))).
		Set("default_vpcs", analyzer.Int(defaults))

	resources := a.subResources()
	counts := make([]map[string]int, len(resources))
	var unavailable analyzer.List
	for i, r := range resources {
		c, err := r.count(ctx)
		if err != nil {
			slog.Warn("Failed to list VPC resources", "resource", r.detailKey, "error", err)
			unavailable = append(unavailable, analyzer.String(r.summaryKey))
			rec.Summary.Set(r.summaryKey, analyzer.Null{})
			continue
		}
		counts[i] = c
		total := 0
		for _, n := range c {
			total += n
		}
		rec.Summary.Set(r.summaryKey, analyzer.Int(total))
	}
	a.addAddressSummary(ctx, rec.Summary, &unavailable)
	if len(unavailable) > 0 {
		rec.Summary.Set("unavailable", unavailable)
	}

	for _, v := range vpcs {
		id := deref(v.VpcId)
		detail := analyzer.NewMap().
			Set("vpc_id", analyzer.String(id)).
			Set("is_default", analyzer.Bool(derefBool(v.IsDefault))).
			Set("cidr_block", analyzer.StringPtr(v.CidrBlock)).
			Set("state", analyzer.String(string(v.State))).
			Set("tags", analyzer.Strings(ec2TagsToMap(v.Tags)))
		for i, r := range resources {
			if counts[i] == nil {
				detail.Set(r.detailKey, analyzer.Null{})
				continue
			}
			detail.Set(r.detailKey, analyzer.Int(counts[i][id]))
		}
		rec.AddDetail(detail)
	}
	return rec, nil
}

// addAddressSummary reports elastic IPs, which are billed while unassociated.
// DescribeAddresses is not paginated.
func (a *VPCAnalyzer) addAddressSummary(ctx context.Context, summary *analyzer.Map, unavailable *analyzer.List) {
	out, err := a.client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		slog.Warn("Failed to describe elastic IPs", "error", err)
		*unavailable = append(*unavailable, analyzer.String("total_elastic_ips"))
		summary.
			Set("total_elastic_ips", analyzer.Null{}).
			Set("unassociated_elastic_ips", analyzer.Null{})
		return
	}
	unassociated := 0
	for _, addr := range out.Addresses {
		if addr.AssociationId == nil {
			unassociated++
		}
	}
	summary.
		Set("total_elastic_ips", analyzer.Int(len(out.Addresses))).
		Set("unassociated_elastic_ips", analyzer.Int(unassociated))
}
