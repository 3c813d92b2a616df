package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// Route53API is the minimal interface for Route 53 operations.
type Route53API interface {
	ListHostedZones(ctx context.Context, input *route53.ListHostedZonesInput, opts ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
}

// Route53Analyzer reports hosted zones split into public and private.
type Route53Analyzer struct {
	client Route53API
}

// NewRoute53Analyzer creates an analyzer for Route 53 hosted zones.
func NewRoute53Analyzer(client Route53API) *Route53Analyzer {
	return &Route53Analyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *Route53Analyzer) Kind() analyzer.Kind {
	return analyzer.KindDNS
}

// Analyze lists all hosted zones. Record set counts come with the listing,
// so details need no extra calls.
func (a *Route53Analyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var zones []r53types.HostedZone
	paginator := route53.NewListHostedZonesPaginator(a.client, &route53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list hosted zones: %w", err)
		}
		zones = append(zones, page.HostedZones...)
	}

	private := 0
	var records int64
	rec := analyzer.NewRecord(includeDetails)
	for _, z := range zones {
		isPrivate := z.Config != nil && z.Config.PrivateZone
		if isPrivate {
			private++
		}
		records += derefInt64(z.ResourceRecordSetCount)

		rec.AddDetail(analyzer.NewMap().
			Set("id", analyzer.StringPtr(z.Id)).
			Set("name", analyzer.StringPtr(z.Name)).
			Set("private", analyzer.Bool(isPrivate)).
			Set("record_set_count", analyzer.Int64Ptr(z.ResourceRecordSetCount)))
	}

	rec.Summary.
		Set("total_hosted_zones", analyzer.Int(len(zones))).
		Set("by_type", analyzer.NewMap().
			Set("public", analyzer.Int(len(zones)-private)).
			Set("private", analyzer.Int(private))).
		Set("total_record_sets", analyzer.Int(records))
	return rec, nil
}
