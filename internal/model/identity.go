package model

// PasswordPolicy is the account password policy. Nil fields are left to
// the IAM defaults.
type PasswordPolicy struct {
	MinimumPasswordLength      *int32 `json:"MinimumPasswordLength,omitempty"`
	RequireSymbols             bool   `json:"RequireSymbols"`
	RequireNumbers             bool   `json:"RequireNumbers"`
	RequireUppercaseCharacters bool   `json:"RequireUppercaseCharacters"`
	RequireLowercaseCharacters bool   `json:"RequireLowercaseCharacters"`
	AllowUsersToChangePassword bool   `json:"AllowUsersToChangePassword"`
	MaxPasswordAge             *int32 `json:"MaxPasswordAge,omitempty"`
	PasswordReusePrevention    *int32 `json:"PasswordReusePrevention,omitempty"`
	HardExpiry                 *bool  `json:"HardExpiry,omitempty"`
}
