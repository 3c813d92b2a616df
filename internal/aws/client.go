package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Client wraps the AWS SDK configuration for creating service clients.
type Client struct {
	cfg aws.Config
}

// NewClient creates a new AWS client using the specified profile and region.
// If profile is empty, the default credential chain is used.
// If region is empty, the default region from config/env is used.
func NewClient(ctx context.Context, profile, region string) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Client{cfg: cfg}, nil
}

// Config returns the underlying AWS config.
func (c *Client) Config() aws.Config {
	return c.cfg
}

// costExplorerRegion is where the Cost Explorer API is served.
const costExplorerRegion = "us-east-1"

// CostExplorer returns a Cost Explorer client. The API is global, so the
// client is pinned to us-east-1 regardless of the configured region.
func (c *Client) CostExplorer() *costexplorer.Client {
	cfg := c.cfg.Copy()
	cfg.Region = costExplorerRegion
	return costexplorer.NewFromConfig(cfg)
}

// STSAPI is the minimal interface for caller identity lookups.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, input *sts.GetCallerIdentityInput, opts ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AccountID returns the account the credentials belong to.
func AccountID(ctx context.Context, client STSAPI) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	account := deref(out.Account)
	slog.Debug("Resolved caller identity", "account", account)
	return account, nil
}

// AccountID resolves the account id using this client's configuration.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	return AccountID(ctx, sts.NewFromConfig(c.cfg))
}
