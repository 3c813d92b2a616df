package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// CloudFrontAPI is the minimal interface for CloudFront operations.
type CloudFrontAPI interface {
	ListDistributions(ctx context.Context, input *cloudfront.ListDistributionsInput, opts ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error)
}

// CloudFrontAnalyzer inventories distributions.
type CloudFrontAnalyzer struct {
	client CloudFrontAPI
}

// NewCloudFrontAnalyzer creates an analyzer for CloudFront distributions.
func NewCloudFrontAnalyzer(client CloudFrontAPI) *CloudFrontAnalyzer {
	return &CloudFrontAnalyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *CloudFrontAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindCDN
}

// Analyze counts distributions by enabled state and price class.
func (a *CloudFrontAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var dists []cftypes.DistributionSummary
	paginator := cloudfront.NewListDistributionsPaginator(a.client, &cloudfront.ListDistributionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list CloudFront distributions: %w", err)
		}
		if page.DistributionList != nil {
			dists = append(dists, page.DistributionList.Items...)
		}
	}

	enabled := 0
	byPriceClass := make(map[string]int)
	rec := analyzer.NewRecord(includeDetails)
	for _, d := range dists {
		if derefBool(d.Enabled) {
			enabled++
		}
		byPriceClass[orUnknown(string(d.PriceClass))]++

		origins, aliases := 0, 0
		if d.Origins != nil {
			origins = len(d.Origins.Items)
		}
		if d.Aliases != nil {
			aliases = len(d.Aliases.Items)
		}
		rec.AddDetail(analyzer.NewMap().
			Set("id", analyzer.StringPtr(d.Id)).
			Set("domain_name", analyzer.StringPtr(d.DomainName)).
			Set("enabled", analyzer.Bool(derefBool(d.Enabled))).
			Set("status", analyzer.StringPtr(d.Status)).
			Set("price_class", analyzer.String(string(d.PriceClass))).
			Set("origins_count", analyzer.Int(origins)).
			Set("aliases_count", analyzer.Int(aliases)).
			Set("comment", analyzer.StringPtr(d.Comment)))
	}

	rec.Summary.
		Set("total_distributions", analyzer.Int(len(dists))).
		Set("enabled", analyzer.Int(enabled)).
		Set("disabled", analyzer.Int(len(dists)-enabled)).
		Set("by_price_class", analyzer.Counts(byPriceClass))
	return rec, nil
}
