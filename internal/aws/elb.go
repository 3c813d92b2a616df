package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	classictypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// ClassicELBAPI is the minimal interface for classic load balancer operations.
type ClassicELBAPI interface {
	DescribeLoadBalancers(ctx context.Context, input *elasticloadbalancing.DescribeLoadBalancersInput, opts ...func(*elasticloadbalancing.Options)) (*elasticloadbalancing.DescribeLoadBalancersOutput, error)
}

// ELBAPI is the minimal interface for ELBv2 operations.
type ELBAPI interface {
	DescribeLoadBalancers(ctx context.Context, input *elasticloadbalancingv2.DescribeLoadBalancersInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeLoadBalancersOutput, error)
	DescribeTargetGroups(ctx context.Context, input *elasticloadbalancingv2.DescribeTargetGroupsInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetGroupsOutput, error)
}

// ELBAnalyzer reports classic, application, network and gateway load balancers.
type ELBAnalyzer struct {
	classic     ClassicELBAPI
	client      ELBAPI
	concurrency int
}

// NewELBAnalyzer creates an analyzer for both load balancer generations.
func NewELBAnalyzer(classic ClassicELBAPI, client ELBAPI, opts Options) *ELBAnalyzer {
	return &ELBAnalyzer{classic: classic, client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *ELBAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindLoadBalancer
}

// Analyze lists both generations. One failing generation is logged and
// reported as unavailable; the analyzer fails only when neither can be listed.
func (a *ELBAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	classic, classicErr := a.listClassic(ctx)
	v2, v2Err := a.listV2(ctx)
	if classicErr != nil && v2Err != nil {
		return nil, fmt.Errorf("list load balancers: %w", v2Err)
	}

	var unavailable analyzer.List
	if classicErr != nil {
		slog.Warn("Failed to list classic load balancers", "error", classicErr)
		unavailable = append(unavailable, analyzer.String("classic"))
	}
	if v2Err != nil {
		slog.Warn("Failed to list load balancers", "error", v2Err)
		unavailable = append(unavailable, analyzer.String("alb_nlb"))
	}

	byType := make(map[string]int)
	if len(classic) > 0 {
		byType["classic"] = len(classic)
	}
	for _, lb := range v2 {
		byType[orUnknown(string(lb.Type))]++
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("classic", analyzer.Int(len(classic))).
		Set("alb_nlb", analyzer.Int(len(v2))).
		Set("total", analyzer.Int(len(classic)+len(v2))).
		Set("by_type", analyzer.Counts(byType))
	if unavailable != nil {
		rec.Summary.Set("unavailable", unavailable)
	}

	if !includeDetails {
		return rec, nil
	}

	for _, lb := range classic {
		rec.AddDetail(analyzer.NewMap().
			Set("generation", analyzer.String("classic")).
			Set("name", analyzer.StringPtr(lb.LoadBalancerName)).
			Set("dns", analyzer.StringPtr(lb.DNSName)).
			Set("scheme", analyzer.StringPtr(lb.Scheme)).
			Set("instance_count", analyzer.Int(len(lb.Instances))).
			Set("created_at", timeValue(lb.CreatedTime)))
	}

	targetGroups := collectEach(ctx, a.concurrency, v2, func(ctx context.Context, lb elbtypes.LoadBalancer) analyzer.Value {
		n, err := a.countTargetGroups(ctx, deref(lb.LoadBalancerArn))
		if err != nil {
			slog.Debug("Failed to list target groups", "lb", deref(lb.LoadBalancerName), "error", err)
			return analyzer.Null{}
		}
		return analyzer.Int(n)
	})
	for i, lb := range v2 {
		state := ""
		if lb.State != nil {
			state = string(lb.State.Code)
		}
		rec.AddDetail(analyzer.NewMap().
			Set("generation", analyzer.String("v2")).
			Set("name", analyzer.StringPtr(lb.LoadBalancerName)).
			Set("arn", analyzer.StringPtr(lb.LoadBalancerArn)).
			Set("dns", analyzer.StringPtr(lb.DNSName)).
			Set("type", analyzer.String(string(lb.Type))).
			Set("scheme", analyzer.String(string(lb.Scheme))).
			Set("state", analyzer.String(state)).
			Set("target_group_count", targetGroups[i]).
			Set("created_at", timeValue(lb.CreatedTime)))
	}
	return rec, nil
}

func (a *ELBAnalyzer) listClassic(ctx context.Context) ([]classictypes.LoadBalancerDescription, error) {
	var lbs []classictypes.LoadBalancerDescription
	paginator := elasticloadbalancing.NewDescribeLoadBalancersPaginator(a.classic, &elasticloadbalancing.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		lbs = append(lbs, page.LoadBalancerDescriptions...)
	}
	return lbs, nil
}

func (a *ELBAnalyzer) listV2(ctx context.Context) ([]elbtypes.LoadBalancer, error) {
	var lbs []elbtypes.LoadBalancer
	paginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(a.client, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		lbs = append(lbs, page.LoadBalancers...)
	}
	return lbs, nil
}

func (a *ELBAnalyzer) countTargetGroups(ctx context.Context, lbARN string) (int, error) {
	count := 0
	paginator := elasticloadbalancingv2.NewDescribeTargetGroupsPaginator(a.client, &elasticloadbalancingv2.DescribeTargetGroupsInput{
		LoadBalancerArn: &lbARN,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		count += len(page.TargetGroups)
	}
	return count, nil
}
