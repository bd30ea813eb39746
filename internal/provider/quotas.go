package provider

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/yuxishi/quota-provider/internal/cache"
	"github.com/yuxishi/quota-provider/internal/model"
	"github.com/yuxishi/quota-provider/internal/quota"
)

// QuotaAPI is the Service Quotas surface of one region.
type QuotaAPI interface {
	quota.Client
	Describe(ctx context.Context, property string, id model.QuotaIdentity) (model.Quota, error)
}

type AccountAPI interface {
	AccountID(ctx context.Context) (string, error)
}

// Backend resolves region-scoped service clients.
type Backend struct {
	Quotas           func(region string) QuotaAPI
	Accounts         func(region string) AccountAPI
	PasswordPolicies func(region string) PasswordPolicyAPI
}

// QuotaResource manages the adjustable quotas of one service as a resource.
// Create and Update raise quotas; Delete leaves them as they are.
type QuotaResource struct {
	typeName       string
	table          quota.Table
	backend        Backend
	cache          *cache.Cache
	maxConcurrency int
	logger         *slog.Logger
}

func NewQuotaResource(typeName string, table quota.Table, backend Backend, c *cache.Cache, maxConcurrency int, logger *slog.Logger) *QuotaResource {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotaResource{
		typeName:       typeName,
		table:          table,
		backend:        backend,
		cache:          c,
		maxConcurrency: maxConcurrency,
		logger:         logger.With("resource_type", typeName),
	}
}

func (r *QuotaResource) Properties() []string {
	return r.table.Properties()
}

func (r *QuotaResource) Create(ctx context.Context, req *model.Request) (Result, error) {
	res, err := r.reconcile(ctx, req, nil)
	if err != nil {
		return Result{}, err
	}
	account, err := r.backend.Accounts(req.Region).AccountID(ctx)
	if err != nil {
		return Result{}, err
	}
	res.PhysicalResourceID = fmt.Sprintf("%s:%s:%s", account, req.Region, r.typeName)
	return res, nil
}

func (r *QuotaResource) Update(ctx context.Context, req *model.Request) (Result, error) {
	return r.reconcile(ctx, req, req.PreviousResourceState)
}

// Delete makes no calls: Service Quotas cannot lower a quota.
func (r *QuotaResource) Delete(_ context.Context, req *model.Request) (Result, error) {
	r.logger.Info("quota increases are not reverted on delete", "physical_id", req.PhysicalResourceID)
	return Result{}, nil
}

// Read reports the enforced value of every managed quota, looked up
// concurrently.
func (r *QuotaResource) Read(ctx context.Context, req *model.Request) (Result, error) {
	key := r.cacheKey(req.Region)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if props, ok := cached.(model.Properties); ok {
				return Result{Model: copyProperties(props)}, nil
			}
		}
	}

	client := r.backend.Quotas(req.Region)
	mappings := r.table.Mappings()
	quotas := make([]model.Quota, len(mappings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrency)
	for i, m := range mappings {
		i, m := i, m
		g.Go(func() error {
			q, err := client.Describe(gctx, m.Property, m.Identity)
			if err != nil {
				return fmt.Errorf("describe %s (%s): %w", m.Property, m.Identity, err)
			}
			quotas[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	props := model.Properties{}
	usage := map[string]float64{}
	for _, q := range quotas {
		props[q.Property] = q.Value
		if q.HasUsageMetrics {
			usage[q.Property] = q.Usage
		}
	}
	if len(usage) > 0 {
		props["Usage"] = usage
	}

	if r.cache != nil {
		r.cache.Set(key, props)
	}
	return Result{Model: copyProperties(props)}, nil
}

func (r *QuotaResource) reconcile(ctx context.Context, req *model.Request, previous model.Properties) (Result, error) {
	rec := quota.NewReconciler(r.backend.Quotas(req.Region), r.logger.With("region", req.Region))
	outcomes, err := rec.Reconcile(ctx, r.table, previous, req.DesiredResourceState)
	if r.cache != nil {
		// Global quotas are shared by every region, so drop them all.
		r.cache.DeletePrefix(r.cacheKey(""))
	}
	if err != nil {
		return Result{}, err
	}

	out := copyProperties(req.DesiredResourceState)
	var requested []string
	for _, o := range outcomes {
		if o.Request != nil && o.Request.ID != "" {
			requested = append(requested, o.Request.ID)
		}
	}
	if len(requested) > 0 {
		out["RequestIds"] = requested
	}
	return Result{Model: out}, nil
}

func (r *QuotaResource) cacheKey(region string) string {
	return "read:" + r.typeName + ":" + region
}

func copyProperties(p model.Properties) model.Properties {
	out := make(model.Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
