package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/yuxishi/quota-provider/internal/model"
)

type IAMAPI interface {
	GetAccountPasswordPolicy(ctx context.Context, params *iam.GetAccountPasswordPolicyInput, optFns ...func(*iam.Options)) (*iam.GetAccountPasswordPolicyOutput, error)
	UpdateAccountPasswordPolicy(ctx context.Context, params *iam.UpdateAccountPasswordPolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAccountPasswordPolicyOutput, error)
	DeleteAccountPasswordPolicy(ctx context.Context, params *iam.DeleteAccountPasswordPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteAccountPasswordPolicyOutput, error)
}

type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var (
	_ IAMAPI = (*iam.Client)(nil)
	_ STSAPI = (*sts.Client)(nil)
)

// IdentityService wraps the account-level IAM settings and the caller
// identity. The account id is looked up once.
type IdentityService struct {
	iam IAMAPI
	sts STSAPI

	mu        sync.Mutex
	accountID string
}

func NewIdentityService(iamClient IAMAPI, stsClient STSAPI) *IdentityService {
	return &IdentityService{iam: iamClient, sts: stsClient}
}

func (s *IdentityService) AccountID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountID != "" {
		return s.accountID, nil
	}

	output, err := s.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	if output.Account == nil {
		return "", errors.New("caller identity has no account")
	}
	s.accountID = *output.Account
	return s.accountID, nil
}

func (s *IdentityService) PasswordPolicy(ctx context.Context) (model.PasswordPolicy, error) {
	output, err := s.iam.GetAccountPasswordPolicy(ctx, &iam.GetAccountPasswordPolicyInput{})
	if err != nil {
		if isNoSuchEntity(err) {
			return model.PasswordPolicy{}, fmt.Errorf("account password policy: %w", model.ErrNotFound)
		}
		return model.PasswordPolicy{}, err
	}
	if output.PasswordPolicy == nil {
		return model.PasswordPolicy{}, fmt.Errorf("account password policy: %w", model.ErrNotFound)
	}

	p := output.PasswordPolicy
	return model.PasswordPolicy{
		MinimumPasswordLength:      p.MinimumPasswordLength,
		RequireSymbols:             p.RequireSymbols,
		RequireNumbers:             p.RequireNumbers,
		RequireUppercaseCharacters: p.RequireUppercaseCharacters,
		RequireLowercaseCharacters: p.RequireLowercaseCharacters,
		AllowUsersToChangePassword: p.AllowUsersToChangePassword,
		MaxPasswordAge:             p.MaxPasswordAge,
		PasswordReusePrevention:    p.PasswordReusePrevention,
		HardExpiry:                 p.HardExpiry,
	}, nil
}

func (s *IdentityService) PutPasswordPolicy(ctx context.Context, policy model.PasswordPolicy) error {
	_, err := s.iam.UpdateAccountPasswordPolicy(ctx, &iam.UpdateAccountPasswordPolicyInput{
		MinimumPasswordLength:      policy.MinimumPasswordLength,
		RequireSymbols:             policy.RequireSymbols,
		RequireNumbers:             policy.RequireNumbers,
		RequireUppercaseCharacters: policy.RequireUppercaseCharacters,
		RequireLowercaseCharacters: policy.RequireLowercaseCharacters,
		AllowUsersToChangePassword: policy.AllowUsersToChangePassword,
		MaxPasswordAge:             policy.MaxPasswordAge,
		PasswordReusePrevention:    policy.PasswordReusePrevention,
		HardExpiry:                 policy.HardExpiry,
	})
	return err
}

// DeletePasswordPolicy removes the policy. A missing policy is not an error.
func (s *IdentityService) DeletePasswordPolicy(ctx context.Context) error {
	_, err := s.iam.DeleteAccountPasswordPolicy(ctx, &iam.DeleteAccountPasswordPolicyInput{})
	if err != nil && !isNoSuchEntity(err) {
		return err
	}
	return nil
}

func isNoSuchEntity(err error) bool {
	var nse *iamtypes.NoSuchEntityException
	return errors.As(err, &nse)
}
