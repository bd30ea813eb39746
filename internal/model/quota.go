package model

import "time"

// QuotaIdentity addresses one adjustable limit in the Service Quotas API.
type QuotaIdentity struct {
	ServiceCode string `json:"service_code" yaml:"service_code"`
	QuotaCode   string `json:"quota_code" yaml:"quota_code"`
}

func (q QuotaIdentity) String() string {
	return q.ServiceCode + "/" + q.QuotaCode
}

type ChangeStatus string

const (
	ChangeStatusPending     ChangeStatus = "PENDING"
	ChangeStatusCaseOpened  ChangeStatus = "CASE_OPENED"
	ChangeStatusApproved    ChangeStatus = "APPROVED"
	ChangeStatusDenied      ChangeStatus = "DENIED"
	ChangeStatusCaseClosed  ChangeStatus = "CASE_CLOSED"
	ChangeStatusNotApproved ChangeStatus = "NOT_APPROVED"
	ChangeStatusInvalid     ChangeStatus = "INVALID"
)

// Open reports whether a change request is still in flight.
func (s ChangeStatus) Open() bool {
	return s == ChangeStatusPending || s == ChangeStatusCaseOpened
}

// ChangeRecord is a previously submitted quota increase request.
type ChangeRecord struct {
	ID           string        `json:"id"`
	CaseID       string        `json:"case_id,omitempty"`
	Identity     QuotaIdentity `json:"identity"`
	Status       ChangeStatus  `json:"status"`
	DesiredValue float64       `json:"desired_value"`
	Created      time.Time     `json:"created,omitempty"`
}

// Quota is the observed state of one managed quota, as returned by Read.
type Quota struct {
	Property        string        `json:"property"`
	Identity        QuotaIdentity `json:"identity"`
	QuotaName       string        `json:"quota_name"`
	Value           float64       `json:"value"`
	Default         bool          `json:"default"`
	Usage           float64       `json:"usage"`
	UsagePercentage float64       `json:"usage_percentage"`
	HasUsageMetrics bool          `json:"has_usage_metrics"`
	Unit            string        `json:"unit"`
	Adjustable      bool          `json:"adjustable"`
	Global          bool          `json:"global"`
}

type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
