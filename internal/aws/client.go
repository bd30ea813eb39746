package aws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/yuxishi/quota-provider/internal/logs"
)

// LoadConfig loads the default credential chain for region, optionally
// pinned to a shared config profile. SDK logging goes to logger.
func LoadConfig(ctx context.Context, region, profile string, logger *slog.Logger) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if logger != nil {
		opts = append(opts, config.WithLogger(logs.SDKLogger(logger)))
	}
	return config.LoadDefaultConfig(ctx, opts...)
}

// RegionClients bundles the services used in one region.
type RegionClients struct {
	Quotas   *QuotaService
	Identity *IdentityService
	Regions  *RegionLister
}

// Clients hands out per-region service wrappers built from one base config.
type Clients struct {
	base   aws.Config
	logger *slog.Logger

	mu       sync.Mutex
	byRegion map[string]*RegionClients
}

func NewClients(base aws.Config, logger *slog.Logger) *Clients {
	return &Clients{
		base:     base,
		logger:   logger,
		byRegion: make(map[string]*RegionClients),
	}
}

// Region returns the clients for region, or the base region when empty.
func (c *Clients) Region(region string) *RegionClients {
	if region == "" {
		region = c.base.Region
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rc, ok := c.byRegion[region]; ok {
		return rc
	}

	cfg := c.base.Copy()
	cfg.Region = region
	rc := &RegionClients{
		Quotas:   NewQuotaService(servicequotas.NewFromConfig(cfg), cloudwatch.NewFromConfig(cfg), ec2.NewFromConfig(cfg), c.logger),
		Identity: NewIdentityService(iam.NewFromConfig(cfg), sts.NewFromConfig(cfg)),
		Regions:  NewRegionLister(ec2.NewFromConfig(cfg)),
	}
	c.byRegion[region] = rc
	return rc
}

func safeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
