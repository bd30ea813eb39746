package model

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionRead   Action = "READ"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

type ErrorCode string

const (
	ErrorCodeInvalidRequest          ErrorCode = "InvalidRequest"
	ErrorCodeNotFound                ErrorCode = "NotFound"
	ErrorCodeGeneralServiceException ErrorCode = "GeneralServiceException"
)

// Request is a single lifecycle event delivered to a resource provider.
type Request struct {
	Action                Action     `json:"action"`
	ResourceType          string     `json:"resourceType"`
	LogicalResourceID     string     `json:"logicalResourceId"`
	PhysicalResourceID    string     `json:"physicalResourceId,omitempty"`
	ClientRequestToken    string     `json:"clientRequestToken,omitempty"`
	Region                string     `json:"region,omitempty"`
	DesiredResourceState  Properties `json:"desiredResourceState"`
	PreviousResourceState Properties `json:"previousResourceState,omitempty"`
}

// ProgressEvent is the provider's answer to a Request.
type ProgressEvent struct {
	Status             Status     `json:"status"`
	ResourceModel      Properties `json:"resourceModel,omitempty"`
	PhysicalResourceID string     `json:"physicalResourceId,omitempty"`
	ClientRequestToken string     `json:"clientRequestToken,omitempty"`
	Message            string     `json:"message,omitempty"`
	ErrorCode          ErrorCode  `json:"errorCode,omitempty"`
}
