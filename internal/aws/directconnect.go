package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/directconnect"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// DirectConnectAPI is the minimal interface for Direct Connect operations.
type DirectConnectAPI interface {
	DescribeConnections(ctx context.Context, input *directconnect.DescribeConnectionsInput, opts ...func(*directconnect.Options)) (*directconnect.DescribeConnectionsOutput, error)
}

// DirectConnectAnalyzer reports dedicated and hosted connections.
type DirectConnectAnalyzer struct {
	client DirectConnectAPI
}

// NewDirectConnectAnalyzer creates an analyzer for Direct Connect.
func NewDirectConnectAnalyzer(client DirectConnectAPI) *DirectConnectAnalyzer {
	return &DirectConnectAnalyzer{client: client}
}

// Kind returns the kind of service this analyzer handles.
func (a *DirectConnectAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindCrossConnect
}

// Analyze describes all connections. DescribeConnections is not paginated.
func (a *DirectConnectAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	out, err := a.client.DescribeConnections(ctx, &directconnect.DescribeConnectionsInput{})
	if err != nil {
		return nil, fmt.Errorf("describe Direct Connect connections: %w", err)
	}

	byState := make(map[string]int)
	byBandwidth := make(map[string]int)
	rec := analyzer.NewRecord(includeDetails)
	for _, c := range out.Connections {
		byState[orUnknown(string(c.ConnectionState))]++
		byBandwidth[orUnknown(deref(c.Bandwidth))]++

		rec.AddDetail(analyzer.NewMap().
			Set("connection_id", analyzer.StringPtr(c.ConnectionId)).
			Set("name", analyzer.StringPtr(c.ConnectionName)).
			Set("location", analyzer.StringPtr(c.Location)).
			Set("bandwidth", analyzer.StringPtr(c.Bandwidth)).
			Set("connection_state", analyzer.String(string(c.ConnectionState))))
	}

	rec.Summary.
		Set("total_connections", analyzer.Int(len(out.Connections))).
		Set("by_state", analyzer.Counts(byState)).
		Set("by_bandwidth", analyzer.Counts(byBandwidth))
	return rec, nil
}
