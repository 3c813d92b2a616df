package aws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// maxVerificationIdentities is the GetIdentityVerificationAttributes limit per call.
const maxVerificationIdentities = 100

// SESAPI is the minimal interface for SES operations.
type SESAPI interface {
	ListIdentities(ctx context.Context, input *ses.ListIdentitiesInput, opts ...func(*ses.Options)) (*ses.ListIdentitiesOutput, error)
	GetIdentityVerificationAttributes(ctx context.Context, input *ses.GetIdentityVerificationAttributesInput, opts ...func(*ses.Options)) (*ses.GetIdentityVerificationAttributesOutput, error)
}

// SESAnalyzer reports verified sending identities.
type SESAnalyzer struct {
	client SESAPI
}

// NewSESAnalyzer creates an analyzer for SES identities.
func NewSESAnalyzer(client SESAPI) *SESAnalyzer {
	return &SESAnalyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *SESAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindEmail
}

// Analyze lists email and domain identities separately, since the API
// has no combined listing, and de-duplicates them preserving order.
func (a *SESAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	identityTypes := []sestypes.IdentityType{sestypes.IdentityTypeEmailAddress, sestypes.IdentityTypeDomain}

	var identities []string
	byType := make(map[string]int)
	seen := make(map[string]bool)
	var errs []error
	for _, it := range identityTypes {
		ids, err := a.listIdentities(ctx, it)
		if err != nil {
			slog.Debug("Failed to list SES identities", "type", string(it), "error", err)
			errs = append(errs, err)
			continue
		}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			identities = append(identities, id)
			byType[string(it)]++
		}
	}
	if len(errs) == len(identityTypes) {
		return nil, fmt.Errorf("list SES identities: %w", errors.Join(errs...))
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_identities", analyzer.Int(len(identities))).
		Set("by_type", analyzer.Counts(byType))
	if !includeDetails {
		return rec, nil
	}

	attrs := a.verificationAttributes(ctx, identities)
	byStatus := make(map[string]int)
	for _, id := range identities {
		detail := analyzer.NewMap().Set("identity", analyzer.String(id))
		va, ok := attrs[id]
		if !ok {
			byStatus[unknownClass]++
			rec.AddDetail(detail.
				Set("verification_status", analyzer.Null{}).
				Set("verification_token", analyzer.Null{}))
			continue
		}
		byStatus[string(va.VerificationStatus)]++
		rec.AddDetail(detail.
			Set("verification_status", analyzer.String(string(va.VerificationStatus))).
			Set("verification_token", analyzer.StringPtr(va.VerificationToken)))
	}
	rec.Summary.Set("by_verification_status", analyzer.Counts(byStatus))
	return rec, nil
}

func (a *SESAnalyzer) listIdentities(ctx context.Context, it sestypes.IdentityType) ([]string, error) {
	var ids []string
	paginator := ses.NewListIdentitiesPaginator(a.client, &ses.ListIdentitiesInput{IdentityType: it})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page.Identities...)
	}
	return ids, nil
}

// verificationAttributes omits identities whose batch failed.
func (a *SESAnalyzer) verificationAttributes(ctx context.Context, identities []string) map[string]sestypes.IdentityVerificationAttributes {
	out := make(map[string]sestypes.IdentityVerificationAttributes, len(identities))
	for _, batch := range batchIDs(identities, maxVerificationIdentities) {
		resp, err := a.client.GetIdentityVerificationAttributes(ctx, &ses.GetIdentityVerificationAttributesInput{Identities: batch})
		if err != nil {
			slog.Debug("Failed to get SES verification attributes", "count", len(batch), "error", err)
			continue
		}
		for id, va := range resp.VerificationAttributes {
			out[id] = va
		}
	}
	return out
}
