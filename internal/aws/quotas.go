package aws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
	"github.com/aws/smithy-go"

	"github.com/yuxishi/quota-provider/internal/model"
)

// ServiceQuotasAPI is the part of the Service Quotas client QuotaService uses.
type ServiceQuotasAPI interface {
	servicequotas.ListRequestedServiceQuotaChangeHistoryByQuotaAPIClient
	GetServiceQuota(ctx context.Context, params *servicequotas.GetServiceQuotaInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetServiceQuotaOutput, error)
	GetAWSDefaultServiceQuota(ctx context.Context, params *servicequotas.GetAWSDefaultServiceQuotaInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetAWSDefaultServiceQuotaOutput, error)
	RequestServiceQuotaIncrease(ctx context.Context, params *servicequotas.RequestServiceQuotaIncreaseInput, optFns ...func(*servicequotas.Options)) (*servicequotas.RequestServiceQuotaIncreaseOutput, error)
}

var _ ServiceQuotasAPI = (*servicequotas.Client)(nil)

// QuotaService reads and requests quota changes for one region. Not-found
// answers are reported as model.ErrNotFound; every other SDK error is
// returned as is.
type QuotaService struct {
	client ServiceQuotasAPI
	cw     CloudWatchAPI
	ec2    EC2API
	logger *slog.Logger
}

func NewQuotaService(client ServiceQuotasAPI, cw CloudWatchAPI, ec2Client EC2API, logger *slog.Logger) *QuotaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotaService{client: client, cw: cw, ec2: ec2Client, logger: logger}
}

func (s *QuotaService) ChangeHistory(ctx context.Context, id model.QuotaIdentity) ([]model.ChangeRecord, error) {
	paginator := servicequotas.NewListRequestedServiceQuotaChangeHistoryByQuotaPaginator(s.client,
		&servicequotas.ListRequestedServiceQuotaChangeHistoryByQuotaInput{
			ServiceCode: aws.String(id.ServiceCode),
			QuotaCode:   aws.String(id.QuotaCode),
		})

	var records []model.ChangeRecord
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, notFound(err)
		}
		for _, rq := range output.RequestedQuotas {
			records = append(records, toChangeRecord(rq))
		}
	}
	return records, nil
}

func (s *QuotaService) CurrentValue(ctx context.Context, id model.QuotaIdentity) (float64, error) {
	output, err := s.client.GetServiceQuota(ctx, &servicequotas.GetServiceQuotaInput{
		ServiceCode: aws.String(id.ServiceCode),
		QuotaCode:   aws.String(id.QuotaCode),
	})
	if err != nil {
		return 0, notFound(err)
	}
	if output.Quota == nil || output.Quota.Value == nil {
		return 0, fmt.Errorf("quota %s has no value: %w", id, model.ErrNotFound)
	}
	return *output.Quota.Value, nil
}

func (s *QuotaService) DefaultValue(ctx context.Context, id model.QuotaIdentity) (float64, error) {
	output, err := s.client.GetAWSDefaultServiceQuota(ctx, &servicequotas.GetAWSDefaultServiceQuotaInput{
		ServiceCode: aws.String(id.ServiceCode),
		QuotaCode:   aws.String(id.QuotaCode),
	})
	if err != nil {
		return 0, notFound(err)
	}
	if output.Quota == nil || output.Quota.Value == nil {
		return 0, fmt.Errorf("default quota %s has no value: %w", id, model.ErrNotFound)
	}
	return *output.Quota.Value, nil
}

func (s *QuotaService) RequestIncrease(ctx context.Context, id model.QuotaIdentity, value float64) (model.ChangeRecord, error) {
	output, err := s.client.RequestServiceQuotaIncrease(ctx, &servicequotas.RequestServiceQuotaIncreaseInput{
		ServiceCode:  aws.String(id.ServiceCode),
		QuotaCode:    aws.String(id.QuotaCode),
		DesiredValue: aws.Float64(value),
	})
	if err != nil {
		return model.ChangeRecord{}, err
	}
	if output.RequestedQuota == nil {
		return model.ChangeRecord{Identity: id, DesiredValue: value}, nil
	}
	return toChangeRecord(*output.RequestedQuota), nil
}

// Describe returns the quota as enforced, falling back to the AWS default
// when the account never customized it, enriched with usage where known.
func (s *QuotaService) Describe(ctx context.Context, property string, id model.QuotaIdentity) (model.Quota, error) {
	q, err := s.describe(ctx, id)
	if err != nil {
		return model.Quota{}, err
	}
	quota := model.Quota{
		Property:   property,
		Identity:   id,
		QuotaName:  safeString(q.sq.QuotaName),
		Default:    q.isDefault,
		Unit:       safeString(q.sq.Unit),
		Adjustable: q.sq.Adjustable,
		Global:     q.sq.GlobalQuota,
	}
	if q.sq.Value != nil {
		quota.Value = *q.sq.Value
	}

	// Try to get usage metrics from CloudWatch first
	if q.sq.UsageMetric != nil {
		s.enrichWithUsageFromCloudWatch(ctx, q.sq.UsageMetric, &quota)
	}

	// Fallback to direct API if CloudWatch didn't provide usage data
	if quota.Usage == 0 && !quota.HasUsageMetrics {
		s.enrichWithDirectAPI(ctx, &quota)
	}
	return quota, nil
}

type describedQuota struct {
	sq        *sqtypes.ServiceQuota
	isDefault bool
}

func (s *QuotaService) describe(ctx context.Context, id model.QuotaIdentity) (describedQuota, error) {
	output, err := s.client.GetServiceQuota(ctx, &servicequotas.GetServiceQuotaInput{
		ServiceCode: aws.String(id.ServiceCode),
		QuotaCode:   aws.String(id.QuotaCode),
	})
	if err == nil && output.Quota != nil {
		return describedQuota{sq: output.Quota}, nil
	}
	if err != nil && !isNotFound(err) {
		return describedQuota{}, err
	}

	def, err := s.client.GetAWSDefaultServiceQuota(ctx, &servicequotas.GetAWSDefaultServiceQuotaInput{
		ServiceCode: aws.String(id.ServiceCode),
		QuotaCode:   aws.String(id.QuotaCode),
	})
	if err != nil {
		return describedQuota{}, notFound(err)
	}
	if def.Quota == nil {
		return describedQuota{}, fmt.Errorf("quota %s: %w", id, model.ErrNotFound)
	}
	return describedQuota{sq: def.Quota, isDefault: true}, nil
}

func toChangeRecord(rq sqtypes.RequestedServiceQuotaChange) model.ChangeRecord {
	rec := model.ChangeRecord{
		ID:     safeString(rq.Id),
		CaseID: safeString(rq.CaseId),
		Identity: model.QuotaIdentity{
			ServiceCode: safeString(rq.ServiceCode),
			QuotaCode:   safeString(rq.QuotaCode),
		},
		Status: model.ChangeStatus(rq.Status),
	}
	if rq.DesiredValue != nil {
		rec.DesiredValue = *rq.DesiredValue
	}
	if rq.Created != nil {
		rec.Created = *rq.Created
	}
	return rec
}

// notFound marks NoSuchResource answers with model.ErrNotFound and leaves
// everything else untouched.
func notFound(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", model.ErrNotFound, err)
	}
	return err
}

func isNotFound(err error) bool {
	var nsr *sqtypes.NoSuchResourceException
	if errors.As(err, &nsr) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchResourceException"
}
