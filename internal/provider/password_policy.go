package provider

import (
	"context"
	"log/slog"

	"github.com/yuxishi/quota-provider/internal/model"
)

type PasswordPolicyAPI interface {
	PasswordPolicy(ctx context.Context) (model.PasswordPolicy, error)
	PutPasswordPolicy(ctx context.Context, policy model.PasswordPolicy) error
	DeletePasswordPolicy(ctx context.Context) error
}

var passwordPolicyProperties = []string{
	"MinimumPasswordLength",
	"RequireSymbols",
	"RequireNumbers",
	"RequireUppercaseCharacters",
	"RequireLowercaseCharacters",
	"AllowUsersToChangePassword",
	"MaxPasswordAge",
	"PasswordReusePrevention",
	"HardExpiry",
}

// PasswordPolicyResource manages the account password policy. There is one
// per account, so the physical id is the account id.
type PasswordPolicyResource struct {
	backend Backend
	logger  *slog.Logger
}

func NewPasswordPolicyResource(backend Backend, logger *slog.Logger) *PasswordPolicyResource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordPolicyResource{backend: backend, logger: logger}
}

func (r *PasswordPolicyResource) Properties() []string {
	out := make([]string, len(passwordPolicyProperties))
	copy(out, passwordPolicyProperties)
	return out
}

func (r *PasswordPolicyResource) Create(ctx context.Context, req *model.Request) (Result, error) {
	res, err := r.put(ctx, req)
	if err != nil {
		return Result{}, err
	}
	account, err := r.backend.Accounts(req.Region).AccountID(ctx)
	if err != nil {
		return Result{}, err
	}
	res.PhysicalResourceID = account
	return res, nil
}

func (r *PasswordPolicyResource) Update(ctx context.Context, req *model.Request) (Result, error) {
	return r.put(ctx, req)
}

func (r *PasswordPolicyResource) Delete(ctx context.Context, req *model.Request) (Result, error) {
	if err := r.backend.PasswordPolicies(req.Region).DeletePasswordPolicy(ctx); err != nil {
		return Result{}, err
	}
	r.logger.Info("deleted account password policy")
	return Result{}, nil
}

func (r *PasswordPolicyResource) Read(ctx context.Context, req *model.Request) (Result, error) {
	policy, err := r.backend.PasswordPolicies(req.Region).PasswordPolicy(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Model: policyToProperties(policy)}, nil
}

func (r *PasswordPolicyResource) put(ctx context.Context, req *model.Request) (Result, error) {
	policy, err := policyFromProperties(req.DesiredResourceState)
	if err != nil {
		return Result{}, err
	}
	if err := r.backend.PasswordPolicies(req.Region).PutPasswordPolicy(ctx, policy); err != nil {
		return Result{}, err
	}
	r.logger.Info("updated account password policy")
	return Result{Model: policyToProperties(policy)}, nil
}

func policyFromProperties(p model.Properties) (model.PasswordPolicy, error) {
	var (
		policy model.PasswordPolicy
		err    error
	)
	if policy.MinimumPasswordLength, err = p.Int32("MinimumPasswordLength"); err != nil {
		return policy, err
	}
	if policy.MaxPasswordAge, err = p.Int32("MaxPasswordAge"); err != nil {
		return policy, err
	}
	if policy.PasswordReusePrevention, err = p.Int32("PasswordReusePrevention"); err != nil {
		return policy, err
	}
	if policy.HardExpiry, err = p.Bool("HardExpiry"); err != nil {
		return policy, err
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"RequireSymbols", &policy.RequireSymbols},
		{"RequireNumbers", &policy.RequireNumbers},
		{"RequireUppercaseCharacters", &policy.RequireUppercaseCharacters},
		{"RequireLowercaseCharacters", &policy.RequireLowercaseCharacters},
		{"AllowUsersToChangePassword", &policy.AllowUsersToChangePassword},
	}
	for _, f := range flags {
		b, err := p.Bool(f.key)
		if err != nil {
			return policy, err
		}
		if b != nil {
			*f.dst = *b
		}
	}
	return policy, nil
}

func policyToProperties(policy model.PasswordPolicy) model.Properties {
	props := model.Properties{
		"RequireSymbols":             policy.RequireSymbols,
		"RequireNumbers":             policy.RequireNumbers,
		"RequireUppercaseCharacters": policy.RequireUppercaseCharacters,
		"RequireLowercaseCharacters": policy.RequireLowercaseCharacters,
		"AllowUsersToChangePassword": policy.AllowUsersToChangePassword,
	}
	if policy.MinimumPasswordLength != nil {
		props["MinimumPasswordLength"] = *policy.MinimumPasswordLength
	}
	if policy.MaxPasswordAge != nil {
		props["MaxPasswordAge"] = *policy.MaxPasswordAge
	}
	if policy.PasswordReusePrevention != nil {
		props["PasswordReusePrevention"] = *policy.PasswordReusePrevention
	}
	if policy.HardExpiry != nil {
		props["HardExpiry"] = *policy.HardExpiry
	}
	return props
}
