package aws

import (
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/directconnect"
	"github.com/aws/aws-sdk-go-v2/service/docdb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/efs"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
)

// builtin binds the Cost Explorer service names of one service to its analyzer.
type builtin struct {
	tokens []string
	build  func(cfg awssdk.Config, opts Options) analyzer.Analyzer
}

var builtins = []builtin{
	{
		tokens: []string{"Amazon Elastic Compute Cloud - Compute"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewComputeAnalyzer(ec2.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"EC2 - Other", "Amazon EC2 - Other"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewBlockStorageAnalyzer(ec2.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon VPC", "Amazon Virtual Private Cloud"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewVPCAnalyzer(ec2.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon Relational Database Service"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewRDSAnalyzer(rds.NewFromConfig(cfg), ec2.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon DocumentDB (with MongoDB compatibility)", "Amazon DocumentDB"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewDocDBAnalyzer(docdb.NewFromConfig(cfg), ec2.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon Simple Storage Service", "Amazon S3"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewS3Analyzer(s3.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{"Amazon CloudFront", "Amazon CloudFront (Amazon)"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewCloudFrontAnalyzer(cloudfront.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon DynamoDB", "Amazon DynamoDB (Amazon)"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewDynamoDBAnalyzer(dynamodb.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{
			"Amazon Elastic Container Registry",
			"Amazon ECR",
			"Amazon EC2 Container Registry (ECR)",
			"Amazon Elastic Container Registry (ECR)",
		},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewECRAnalyzer(ecr.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{"Amazon Elastic Container Service", "Amazon ECS"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewECSAnalyzer(ecs.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{
			"Amazon Elastic Kubernetes Service",
			"Amazon EKS",
			"Amazon Elastic Container Service for Kubernetes",
			"Amazon Elastic Container Service for Kubernetes (EKS)",
		},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewEKSAnalyzer(eks.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{"Amazon Elastic File System", "Amazon EFS"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewEFSAnalyzer(efs.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon Elastic Load Balancing", "AWS Elastic Load Balancing"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewELBAnalyzer(elasticloadbalancing.NewFromConfig(cfg), elasticloadbalancingv2.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{"Amazon ElastiCache", "Amazon ElastiCache (Amazon)"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewElastiCacheAnalyzer(elasticache.NewFromConfig(cfg), ec2.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon OpenSearch Service", "Amazon Elasticsearch"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewOpenSearchAnalyzer(opensearch.NewFromConfig(cfg), ec2.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon Route 53"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewRoute53Analyzer(route53.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon Simple Email Service"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewSESAnalyzer(ses.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"Amazon Simple Notification Service"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewSNSAnalyzer(sns.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{"Amazon Simple Queue Service", "Amazon SQS"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewSQSAnalyzer(sqs.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{"AWS Direct Connect"},
		build: func(cfg awssdk.Config, _ Options) analyzer.Analyzer {
			return NewDirectConnectAnalyzer(directconnect.NewFromConfig(cfg))
		},
	},
	{
		tokens: []string{"AWS Key Management Service", "Amazon Key Management Service"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewKMSAnalyzer(kms.NewFromConfig(cfg), opts)
		},
	},
	{
		tokens: []string{"AWS Lambda", "AWS Lambda (Amazon)"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewLambdaAnalyzer(lambda.NewFromConfig(cfg), NewMetricsFetcher(cloudwatch.NewFromConfig(cfg)), opts)
		},
	},
	{
		tokens: []string{"Amazon Kinesis"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewKinesisAnalyzer(kinesis.NewFromConfig(cfg), NewMetricsFetcher(cloudwatch.NewFromConfig(cfg)), opts)
		},
	},
	{
		tokens: []string{"Amazon Kinesis Firehose", "Amazon Data Firehose"},
		build: func(cfg awssdk.Config, opts Options) analyzer.Analyzer {
			return NewFirehoseAnalyzer(firehose.NewFromConfig(cfg), NewMetricsFetcher(cloudwatch.NewFromConfig(cfg)), opts)
		},
	},
}

// RegisterBuiltins registers every built-in analyzer under the Cost Explorer
// service names it handles. Service clients are created when a factory runs.
func RegisterBuiltins(reg *analyzer.Registry, cfg awssdk.Config, opts Options) {
	for _, b := range builtins {
		build := b.build
		reg.RegisterAll(b.tokens, func() analyzer.Analyzer {
			return build(cfg, opts)
		})
	}
}
