package provider

import (
	"log/slog"

	"github.com/yuxishi/quota-provider/internal/cache"
	"github.com/yuxishi/quota-provider/internal/model"
	"github.com/yuxishi/quota-provider/internal/quota"
)

const PasswordPolicyType = "Identity::IAM::PasswordPolicy"

func quotaID(service, code string) model.QuotaIdentity {
	return model.QuotaIdentity{ServiceCode: service, QuotaCode: code}
}

// quotaTypes maps each quota resource type to the quotas its properties
// manage. Property order is the order a pass visits them.
var quotaTypes = map[string]quota.Table{
	"Quotas::DynamoDB": quota.NewTable(
		quota.Mapping{Property: "Tables", Identity: quotaID("dynamodb", "L-F98FE922")},
	),
	"Quotas::CloudFormation": quota.NewTable(
		quota.Mapping{Property: "Stacks", Identity: quotaID("cloudformation", "L-0485CB21")},
	),
	"Quotas::IAM": quota.NewTable(
		quota.Mapping{Property: "Roles", Identity: quotaID("iam", "L-FE177D64")},
		quota.Mapping{Property: "Users", Identity: quotaID("iam", "L-F55AF5E4")},
	),
	"Quotas::S3": quota.NewTable(
		quota.Mapping{Property: "Buckets", Identity: quotaID("s3", "L-DC2B2D3D")},
	),
	"Quotas::VPC": quota.NewTable(
		quota.Mapping{Property: "VPCs", Identity: quotaID("vpc", "L-F678F1CE")},
		quota.Mapping{Property: "SecurityGroups", Identity: quotaID("vpc", "L-E79EC296")},
		quota.Mapping{Property: "NetworkInterfaces", Identity: quotaID("vpc", "L-DF5E4CA3")},
	),
	"Quotas::EC2": quota.NewTable(
		quota.Mapping{Property: "ElasticIPs", Identity: quotaID("ec2", "L-0263D0A3")},
		quota.Mapping{Property: "OnDemandStandardVCPUs", Identity: quotaID("ec2", "L-1216C47A")},
	),
	"Quotas::Lambda": quota.NewTable(
		quota.Mapping{Property: "ConcurrentExecutions", Identity: quotaID("lambda", "L-B99A9384")},
	),
}

// RegisterDefaults registers every built-in resource type on p.
func RegisterDefaults(p *Provider, backend Backend, c *cache.Cache, maxConcurrency int, logger *slog.Logger) {
	for name, table := range quotaTypes {
		p.Register(name, NewQuotaResource(name, table, backend, c, maxConcurrency, logger))
	}
	p.Register(PasswordPolicyType, NewPasswordPolicyResource(backend, logger))
}
