package aws

import (
	"context"
	"fmt"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

type mockNetworkClient struct {
	vpcs        []ec2types.Vpc
	subnets     []ec2types.Subnet
	natGateways []ec2types.NatGateway
	igws        []ec2types.InternetGateway
	routeTables []ec2types.RouteTable
	endpoints   []ec2types.VpcEndpoint
	groups      []ec2types.SecurityGroup
	addresses   []ec2types.Address
	routeErr    error
	addressErr  error
}

func (m *mockNetworkClient) DescribeVpcs(_ context.Context, _ *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	return &ec2.DescribeVpcsOutput{Vpcs: m.vpcs}, nil
}

func (m *mockNetworkClient) DescribeSubnets(_ context.Context, _ *ec2.DescribeSubnetsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	return &ec2.DescribeSubnetsOutput{Subnets: m.subnets}, nil
}

func (m *mockNetworkClient) DescribeNatGateways(_ context.Context, _ *ec2.DescribeNatGatewaysInput, _ ...func(*ec2.Options)) (*ec2.DescribeNatGatewaysOutput, error) {
	return &ec2.DescribeNatGatewaysOutput{NatGateways: m.natGateways}, nil
}

func (m *mockNetworkClient) DescribeInternetGateways(_ context.Context, _ *ec2.DescribeInternetGatewaysInput, _ ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error) {
	return &ec2.DescribeInternetGatewaysOutput{InternetGateways: m.igws}, nil
}

func (m *mockNetworkClient) DescribeRouteTables(_ context.Context, _ *ec2.DescribeRouteTablesInput, _ ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	if m.routeErr != nil {
		return nil, m.routeErr
	}
	return &ec2.DescribeRouteTablesOutput{RouteTables: m.routeTables}, nil
}

func (m *mockNetworkClient) DescribeVpcEndpoints(_ context.Context, _ *ec2.DescribeVpcEndpointsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcEndpointsOutput, error) {
	return &ec2.DescribeVpcEndpointsOutput{VpcEndpoints: m.endpoints}, nil
}

func (m *mockNetworkClient) DescribeSecurityGroups(_ context.Context, _ *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: m.groups}, nil
}

func (m *mockNetworkClient) DescribeAddresses(_ context.Context, _ *ec2.DescribeAddressesInput, _ ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error) {
	if m.addressErr != nil {
		return nil, m.addressErr
	}
	return &ec2.DescribeAddressesOutput{Addresses: m.addresses}, nil
}

func twoVPCNetwork() *mockNetworkClient {
	a, b := awssdk.String("vpc-a"), awssdk.String("vpc-b")
	return &mockNetworkClient{
		vpcs: []ec2types.Vpc{
			{VpcId: a, IsDefault: awssdk.Bool(true), CidrBlock: awssdk.String("172.31.0.0/16"), State: ec2types.VpcStateAvailable},
			{VpcId: b, CidrBlock: awssdk.String("10.0.0.0/16"), Tags: []ec2types.Tag{{Key: awssdk.String("Name"), Value: awssdk.String("prod")}}},
		},
		subnets: []ec2types.Subnet{{VpcId: a}, {VpcId: a}, {VpcId: b}},
		natGateways: []ec2types.NatGateway{
			{VpcId: b, State: ec2types.NatGatewayStateAvailable},
			{VpcId: b, State: ec2types.NatGatewayStateDeleted},
		},
		igws: []ec2types.InternetGateway{
			{Attachments: []ec2types.InternetGatewayAttachment{{VpcId: a}}},
			{},
		},
		routeTables: []ec2types.RouteTable{{VpcId: a}, {VpcId: b}},
		endpoints:   []ec2types.VpcEndpoint{{VpcId: b}},
		groups:      []ec2types.SecurityGroup{{VpcId: a}, {VpcId: b}, {VpcId: b}},
		addresses: []ec2types.Address{
			{AllocationId: awssdk.String("eipalloc-1"), AssociationId: awssdk.String("eipassoc-1")},
			{AllocationId: awssdk.String("eipalloc-2")},
		},
	}
}

func TestVPCAnalyzer_GroupsResourcesByVPC(t *testing.T) {
	rec, err := NewVPCAnalyzer(twoVPCNetwork()).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]int{
		"total_vpcs":               2,
		"default_vpcs":             1,
		"total_subnets":            3,
		"total_nat_gateways":       1,
		"total_internet_gateways":  2,
		"total_route_tables":       2,
		"total_vpc_endpoints":      1,
		"total_security_groups":    3,
		"total_elastic_ips":        2,
		"unassociated_elastic_ips": 1,
	}
	for key, n := range want {
		if got := intAt(t, rec.Summary, key); got != n {
			t.Errorf("%s = %d, want %d", key, got, n)
		}
	}

	prod := rec.Details[1].(*analyzer.Map)
	if got := intAt(t, prod, "security_group_count"); got != 2 {
		t.Fatalf("expected 2 security groups in vpc-b, got %d", got)
	}
	tags, _ := prod.Get("tags")
	if name, _ := tags.(*analyzer.Map).Get("Name"); name != analyzer.String("prod") {
		t.Fatalf("expected Name tag prod, got %v", name)
	}
}

func TestVPCAnalyzer_SubResourceFailureIsNull(t *testing.T) {
	mock := twoVPCNetwork()
	mock.routeErr = fmt.Errorf("UnauthorizedOperation")
	mock.addressErr = fmt.Errorf("UnauthorizedOperation")

	rec, err := NewVPCAnalyzer(mock).Analyze(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total, _ := rec.Summary.Get("total_route_tables")
	if _, ok := total.(analyzer.Null); !ok {
		t.Fatalf("expected null route table total, got %v", total)
	}
	unavailable, ok := rec.Summary.Get("unavailable")
	if !ok || len(unavailable.(analyzer.List)) != 2 {
		t.Fatalf("expected 2 unavailable resources, got %v", unavailable)
	}
	perVPC, _ := rec.Details[0].(*analyzer.Map).Get("route_table_count")
	if _, ok := perVPC.(analyzer.Null); !ok {
		t.Fatalf("expected null per-VPC route table count, got %v", perVPC)
	}
	if got := intAt(t, rec.Summary, "total_subnets"); got != 3 {
		t.Fatalf("expected other resources unaffected, got %d subnets", got)
	}
}
