package aws

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

var lambdaInvocations = MetricQuery{Namespace: "AWS/Lambda", MetricName: "Invocations", DimensionName: "FunctionName"}

// LambdaAPI is the minimal interface for Lambda operations.
type LambdaAPI interface {
	ListFunctions(ctx context.Context, input *lambda.ListFunctionsInput, opts ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
}

// LambdaAnalyzer reports functions by runtime and configured memory.
// In detail mode it adds invocation counts for the billed period.
type LambdaAnalyzer struct {
	client  LambdaAPI
	metrics *MetricsFetcher
	period  Period
}

// NewLambdaAnalyzer creates an analyzer for Lambda functions. metrics may be nil.
func NewLambdaAnalyzer(client LambdaAPI, metrics *MetricsFetcher, opts Options) *LambdaAnalyzer {
	return &LambdaAnalyzer{client: client, metrics: metrics, period: opts.Period}
}

// Kind returns the kind of service this analyzer handles.
func (a *LambdaAnalyzer) Kind() analyzer.Kind {
	return analyzer.KindFunctionRuntime
}

// Analyze lists all functions.
func (a *LambdaAnalyzer) Analyze(ctx context.Context, includeDetails bool) (*analyzer.Record, error) {
	functions, err := a.listFunctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list Lambda functions: %w", err)
	}

	byRuntime := make(map[string]int)
	byMemory := make(map[string]int)
	byArch := make(map[string]int)
	var totalMemory, totalCode int64
	for _, fn := range functions {
		byRuntime[orUnknown(string(fn.Runtime))]++
		mem := int64(derefInt32(fn.MemorySize))
		totalMemory += mem
		byMemory[strconv.FormatInt(mem, 10)]++
		totalCode += fn.CodeSize
		for _, arch := range functionArchitectures(fn) {
			byArch[arch]++
		}
	}

	rec := analyzer.NewRecord(includeDetails)
	rec.Summary.
		Set("total_functions", analyzer.Int(len(functions))).
		Set("by_runtime", analyzer.Counts(byRuntime)).
		Set("by_memory_mb", analyzer.Counts(byMemory)).
		Set("by_architecture", analyzer.Counts(byArch)).
		Set("total_memory_mb", analyzer.Int(totalMemory)).
		Set("total_code_size_bytes", analyzer.Int(totalCode))
	if !includeDetails {
		return rec, nil
	}

	names := make([]string, 0, len(functions))
	for _, fn := range functions {
		names = append(names, deref(fn.FunctionName))
	}
	invocations := a.metrics.periodSums(ctx, lambdaInvocations, names, a.period)
	var total int64
	for _, fn := range functions {
		name := deref(fn.FunctionName)
		total += int64(invocations[name])
		rec.AddDetail(analyzer.NewMap().
			Set("function_name", analyzer.String(name)).
			Set("runtime", analyzer.String(string(fn.Runtime))).
			Set("handler", analyzer.StringPtr(fn.Handler)).
			Set("memory_mb", analyzer.Int32Ptr(fn.MemorySize)).
			Set("timeout_sec", analyzer.Int32Ptr(fn.Timeout)).
			Set("code_size_bytes", analyzer.Int(fn.CodeSize)).
			Set("last_modified", analyzer.StringPtr(fn.LastModified)).
			Set("invocations", sumValue(invocations, name)))
	}
	if invocations != nil {
		rec.Summary.Set("total_invocations", analyzer.Int(total))
	} else {
		rec.Summary.Set("total_invocations", analyzer.Null{})
	}
	return rec, nil
}

func (a *LambdaAnalyzer) listFunctions(ctx context.Context) ([]lambdatypes.FunctionConfiguration, error) {
	var functions []lambdatypes.FunctionConfiguration
	paginator := lambda.NewListFunctionsPaginator(a.client, &lambda.ListFunctionsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		functions = append(functions, page.Functions...)
	}
	return functions, nil
}

// functionArchitectures defaults to x86_64, which Lambda assumes when unset.
func functionArchitectures(fn lambdatypes.FunctionConfiguration) []string {
	if len(fn.Architectures) == 0 {
		return []string{string(lambdatypes.ArchitectureX8664)}
	}
	out := make([]string, 0, len(fn.Architectures))
	for _, arch := range fn.Architectures {
		out = append(out, string(arch))
	}
	return out
}
