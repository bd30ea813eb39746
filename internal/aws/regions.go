package aws

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/yuxishi/quota-provider/internal/model"
)

type DescribeRegionsAPI interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

type RegionLister struct {
	client DescribeRegionsAPI
}

func NewRegionLister(client DescribeRegionsAPI) *RegionLister {
	return &RegionLister{client: client}
}

// Regions lists the regions enabled for the account, sorted by code.
func (l *RegionLister) Regions(ctx context.Context) ([]model.Region, error) {
	output, err := l.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}

	regions := make([]model.Region, 0, len(output.Regions))
	for _, r := range output.Regions {
		regions = append(regions, model.Region{
			Code: safeString(r.RegionName),
			Name: safeString(r.RegionName),
		})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Code < regions[j].Code })
	return regions, nil
}
