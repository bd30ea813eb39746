package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"

	"github.com/yuxishi/quota-provider/internal/model"
)

type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

type EC2API interface {
	ec2.DescribeVpcsAPIClient
	ec2.DescribeSecurityGroupsAPIClient
	ec2.DescribeNetworkInterfacesAPIClient
	DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
}

var (
	_ CloudWatchAPI = (*cloudwatch.Client)(nil)
	_ EC2API        = (*ec2.Client)(nil)
)

type usageHandler struct {
	ServiceCode string
	Handler     func(context.Context, EC2API) (float64, error)
}

// directUsage covers managed quotas that publish no CloudWatch usage metric
// but can be counted with EC2 describe calls.
var directUsage = map[string]usageHandler{
	"L-F678F1CE": {ServiceCode: "vpc", Handler: countVPCs},
	"L-E79EC296": {ServiceCode: "vpc", Handler: countSecurityGroups},
	"L-DF5E4CA3": {ServiceCode: "vpc", Handler: countNetworkInterfaces},
	"L-0263D0A3": {ServiceCode: "ec2", Handler: countElasticIPs},
}

// usageDirectly attempts to get usage via direct API calls
func (s *QuotaService) usageDirectly(ctx context.Context, quota *model.Quota) (float64, bool, error) {
	handler, exists := directUsage[quota.Identity.QuotaCode]
	if !exists || handler.ServiceCode != quota.Identity.ServiceCode || s.ec2 == nil {
		return 0, false, nil
	}

	usage, err := handler.Handler(ctx, s.ec2)
	if err != nil {
		return 0, true, err
	}
	return usage, true, nil
}

func (s *QuotaService) enrichWithDirectAPI(ctx context.Context, quota *model.Quota) {
	usage, supported, err := s.usageDirectly(ctx, quota)
	if err != nil {
		s.logger.Warn("direct usage query failed",
			"quota", quota.Identity.String(), "error", err)
		return
	}
	if supported {
		quota.HasUsageMetrics = true
		updateQuotaUsage(quota, usage)
		s.logger.Debug("usage from direct API",
			"quota", quota.Identity.String(), "usage", quota.Usage, "value", quota.Value)
	}
}

func (s *QuotaService) enrichWithUsageFromCloudWatch(ctx context.Context, usageMetric *sqtypes.MetricInfo, quota *model.Quota) {
	if s.cw == nil || usageMetric.MetricNamespace == nil || usageMetric.MetricName == nil {
		return
	}

	quota.HasUsageMetrics = true

	stat := getStatisticFromRecommendation(usageMetric.MetricStatisticRecommendation)
	dimensions := buildCloudWatchDimensions(usageMetric.MetricDimensions)

	result, err := s.queryCloudWatch(ctx, usageMetric, dimensions, stat)
	if err != nil {
		s.logger.Warn("CloudWatch query failed",
			"namespace", safeString(usageMetric.MetricNamespace),
			"metric", safeString(usageMetric.MetricName),
			"error", err)
		return
	}

	if len(result.Datapoints) == 0 {
		s.logger.Debug("no datapoints found", "quota", quota.Identity.String())
		return
	}
	latest := findLatestDatapoint(result.Datapoints)
	if latest == nil {
		return
	}
	if value := extractValueFromDatapoint(latest, stat); value > 0 {
		updateQuotaUsage(quota, value)
	}
}

func getStatisticFromRecommendation(recommendation *string) string {
	if recommendation != nil && *recommendation != "" {
		return *recommendation
	}
	return "Maximum"
}

func buildCloudWatchDimensions(metricDimensions map[string]string) []cwtypes.Dimension {
	var dimensions []cwtypes.Dimension
	for key, value := range metricDimensions {
		dimensions = append(dimensions, cwtypes.Dimension{
			Name:  aws.String(key),
			Value: aws.String(value),
		})
	}
	return dimensions
}

func (s *QuotaService) queryCloudWatch(ctx context.Context, usageMetric *sqtypes.MetricInfo, dimensions []cwtypes.Dimension, stat string) (*cloudwatch.GetMetricStatisticsOutput, error) {
	endTime := time.Now()
	startTime := endTime.Add(-24 * time.Hour)

	return s.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  usageMetric.MetricNamespace,
		MetricName: usageMetric.MetricName,
		Dimensions: dimensions,
		StartTime:  &startTime,
		EndTime:    &endTime,
		Period:     aws.Int32(300),
		Statistics: []cwtypes.Statistic{cwtypes.Statistic(stat)},
	})
}

func findLatestDatapoint(datapoints []cwtypes.Datapoint) *cwtypes.Datapoint {
	var latest *cwtypes.Datapoint
	for i := range datapoints {
		if datapoints[i].Timestamp == nil {
			continue
		}
		if latest == nil || datapoints[i].Timestamp.After(*latest.Timestamp) {
			latest = &datapoints[i]
		}
	}
	return latest
}

func extractValueFromDatapoint(datapoint *cwtypes.Datapoint, stat string) float64 {
	var v *float64
	switch stat {
	case "Average":
		v = datapoint.Average
	case "Sum":
		v = datapoint.Sum
	case "Minimum":
		v = datapoint.Minimum
	default:
		v = datapoint.Maximum
	}
	if v == nil {
		return 0
	}
	return *v
}

func updateQuotaUsage(quota *model.Quota, value float64) {
	quota.Usage = value
	if quota.Value > 0 {
		quota.UsagePercentage = (quota.Usage / quota.Value) * 100
	}
}

// ============================================================================
// EC2 / VPC counters
// ============================================================================

func countVPCs(ctx context.Context, client EC2API) (float64, error) {
	count := 0
	paginator := ec2.NewDescribeVpcsPaginator(client, &ec2.DescribeVpcsInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		count += len(output.Vpcs)
	}
	return float64(count), nil
}

func countSecurityGroups(ctx context.Context, client EC2API) (float64, error) {
	count := 0
	paginator := ec2.NewDescribeSecurityGroupsPaginator(client, &ec2.DescribeSecurityGroupsInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		count += len(output.SecurityGroups)
	}
	return float64(count), nil
}

func countNetworkInterfaces(ctx context.Context, client EC2API) (float64, error) {
	count := 0
	paginator := ec2.NewDescribeNetworkInterfacesPaginator(client, &ec2.DescribeNetworkInterfacesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		count += len(output.NetworkInterfaces)
	}
	return float64(count), nil
}

func countElasticIPs(ctx context.Context, client EC2API) (float64, error) {
	result, err := client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return 0, err
	}
	return float64(len(result.Addresses)), nil
}
