package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

const billingModeUnknown = "unknown"

// DynamoDBAPI is the minimal interface for DynamoDB operations.
type DynamoDBAPI interface {
	ListTables(ctx context.Context, input *dynamodb.ListTablesInput, opts ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoDBAnalyzer reports tables by billing mode.
type DynamoDBAnalyzer struct {
	client      DynamoDBAPI
	concurrency int
}

// NewDynamoDBAnalyzer creates an analyzer for DynamoDB tables.
func NewDynamoDBAnalyzer(client DynamoDBAPI, opts Options) *DynamoDBAnalyzer {
	return &DynamoDBAnalyzer{client: client, concurrency: opts.detailConcurrency()}
}

// Kind returns the kind of service this analyzer handles.
func (a *DynamoDBAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindKeyValueStore
}

// Analyze lists tables. Billing modes need one DescribeTable per table, so
// without details every table is reported under "unknown".
func (a *DynamoDBAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	var names []string
	paginator := dynamodb.NewListTablesPaginator(a.client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list DynamoDB tables: %w", err)
		}
		names = append(names, page.TableNames...)
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.Set("total_tables", analyzer.Int(len(names)))
	if !includeDetails {
		rec.Summary.Set("by_billing_mode", analyzer.Counts(map[string]int{billingModeUnknown: len(names)}))
		return rec, nil
	}

	tables := collectEach(ctx, a.concurrency, names, func(ctx context.Context, name string) *ddbtypes.TableDescription {
		out, err := a.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &name})
		if err != nil {
			slog.Warn("Failed to describe DynamoDB table", "table", name, "error", err)
			return nil
		}
		return out.Table
	})

	byBilling := make(map[string]int)
	var totalRead, totalWrite, totalItems, totalBytes int64
	for i, table := range tables {
		if table == nil {
			byBilling[billingModeUnknown]++
			rec.AddDetail(analyzer.NewMap().
				Set("name", analyzer.String(names[i])).
				Set("status", analyzer.String(billingModeUnknown)))
			continue
		}

		billing := string(ddbtypes.BillingModeProvisioned)
		if table.BillingModeSummary != nil && table.BillingModeSummary.BillingMode != "" {
			billing = string(table.BillingModeSummary.BillingMode)
		}
		byBilling[billing]++

		var rcu, wcu *int64
		if table.ProvisionedThroughput != nil {
			rcu = table.ProvisionedThroughput.ReadCapacityUnits
			wcu = table.ProvisionedThroughput.WriteCapacityUnits
		}
		if billing == string(ddbtypes.BillingModeProvisioned) {
			totalRead += derefInt64(rcu)
			totalWrite += derefInt64(wcu)
		}
		totalItems += derefInt64(table.ItemCount)
		totalBytes += derefInt64(table.TableSizeBytes)

		rec.AddDetail(analyzer.NewMap().
			Set("name", analyzer.String(names[i])).
			Set("status", analyzer.String(string(table.TableStatus))).
			Set("billing_mode", analyzer.String(billing)).
			Set("item_count", analyzer.Int64Ptr(table.ItemCount)).
			Set("table_size_bytes", analyzer.Int64Ptr(table.TableSizeBytes)).
			Set("provisioned_throughput", analyzer.NewMap().
				Set("read_capacity_units", analyzer.Int64Ptr(rcu)).
				Set("write_capacity_units", analyzer.Int64Ptr(wcu))))
	}

	rec.Summary.
		Set("by_billing_mode", analyzer.Counts(byBilling)).
		Set("provisioned_read_capacity_units_total", analyzer.Int(totalRead)).
		Set("provisioned_write_capacity_units_total", analyzer.Int(totalWrite)).
		Set("total_item_count", analyzer.Int(totalItems)).
		Set("total_table_size_bytes", analyzer.Int(totalBytes))
	return rec, nil
}
