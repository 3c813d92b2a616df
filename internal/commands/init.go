package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate sample config and IAM policy",
	Long:  `Creates a sample .awsfootprint.yaml config file and an IAM policy JSON file granting the read-only calls discover makes.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, _ []string) error {
	configPath := ".awsfootprint.yaml"
	policyPath := "awsfootprint-policy.json"
	out := cmd.OutOrStdout()

	for _, f := range []struct{ path, content string }{
		{configPath, sampleConfig},
		{policyPath, sampleIAMPolicy},
	} {
		wrote, err := writeIfNotExists(f.path, f.content, initFlags.force)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Fprintf(out, "Created %s\n", f.path)
		} else {
			fmt.Fprintf(out, "Skipping %s (already exists, use --force to overwrite)\n", f.path)
		}
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Edit .awsfootprint.yaml to set profile, region and service filters")
	fmt.Fprintln(out, "  2. Apply awsfootprint-policy.json to your AWS IAM role/user")
	fmt.Fprintln(out, "  3. Run: awsfootprint discover --format md")
	return nil
}

// writeIfNotExists writes content to path unless the file exists and force
// is false. It reports whether the file was written.
func writeIfNotExists(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

const sampleConfig = `# awsfootprint configuration

# AWS profile (or set AWS_PROFILE env var)
# profile: default

# Region whose resources are inventoried (or set AWS_REGION)
# region: us-east-1

# Only analyze these services (names, fragments or aliases)
# services:
#   - ec2
#   - rds
#   - s3

# Service-name fragments that are never analyzed.
# Setting this replaces the built-in list (tax, taxes).
# blacklist:
#   - tax
#   - taxes

# Short names accepted by --services. Setting this replaces the built-in table.
# aliases:
#   s3:
#     - amazon simple storage service
#     - amazon s3

# Output format: json or md
format: json

# Include per-resource details
details: false

# Cost Explorer granularity: MONTHLY or DAILY
granularity: MONTHLY

# Overall timeout and per-service analyzer timeout
timeout: 10m
call_timeout: 2m

# Services analyzed in parallel
concurrency: 4
`

const sampleIAMPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Sid": "AwsFootprintReadOnly",
      "Effect": "Allow",
      "Action": [
        "ce:GetCostAndUsage",
        "sts:GetCallerIdentity",
        "ec2:DescribeInstances",
        "ec2:DescribeInstanceTypes",
        "ec2:DescribeVolumes",
        "ec2:DescribeSnapshots",
        "ec2:DescribeVpcs",
        "ec2:DescribeSubnets",
        "ec2:DescribeNatGateways",
        "ec2:DescribeInternetGateways",
        "ec2:DescribeRouteTables",
        "ec2:DescribeVpcEndpoints",
        "ec2:DescribeSecurityGroups",
        "ec2:DescribeAddresses",
        "rds:DescribeDBInstances",
        "rds:DescribeDBClusters",
        "s3:ListAllMyBuckets",
        "s3:GetBucketLocation",
        "cloudfront:ListDistributions",
        "dynamodb:ListTables",
        "dynamodb:DescribeTable",
        "ecr:DescribeRepositories",
        "ecr:ListImages",
        "ecs:ListClusters",
        "ecs:DescribeClusters",
        "eks:ListClusters",
        "eks:DescribeCluster",
        "elasticfilesystem:DescribeFileSystems",
        "elasticloadbalancing:DescribeLoadBalancers",
        "elasticloadbalancing:DescribeTargetGroups",
        "elasticache:DescribeCacheClusters",
        "es:ListDomainNames",
        "es:DescribeDomains",
        "route53:ListHostedZones",
        "ses:ListIdentities",
        "ses:GetIdentityVerificationAttributes",
        "sns:ListTopics",
        "sns:GetTopicAttributes",
        "sqs:ListQueues",
        "sqs:GetQueueAttributes",
        "directconnect:DescribeConnections",
        "kms:ListKeys",
        "kms:DescribeKey",
        "lambda:ListFunctions",
        "kinesis:ListStreams",
        "kinesis:DescribeStreamSummary",
        "firehose:ListDeliveryStreams",
        "cloudwatch:GetMetricData"
      ],
      "Resource": "*"
    }
  ]
}
`
