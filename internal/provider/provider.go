// Package provider routes resource lifecycle events to the handler
// registered for their resource type and turns the outcome into a
// progress event.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/yuxishi/quota-provider/internal/model"
	"github.com/yuxishi/quota-provider/internal/quota"
)

// Result is what a handler hands back on success.
type Result struct {
	Model              model.Properties
	PhysicalResourceID string
}

type ResourceHandler interface {
	Create(ctx context.Context, req *model.Request) (Result, error)
	Update(ctx context.Context, req *model.Request) (Result, error)
	Delete(ctx context.Context, req *model.Request) (Result, error)
	Read(ctx context.Context, req *model.Request) (Result, error)
	// Properties lists the model properties the handler manages.
	Properties() []string
}

// RequestError is an event the provider refuses to dispatch.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return e.Reason
}

type TypeInfo struct {
	TypeName   string   `json:"type_name"`
	Properties []string `json:"properties"`
}

type Provider struct {
	handlers      map[string]ResourceHandler
	defaultRegion string
	logger        *slog.Logger
}

func New(defaultRegion string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		handlers:      make(map[string]ResourceHandler),
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

func (p *Provider) Register(typeName string, h ResourceHandler) {
	p.handlers[typeName] = h
}

// Types lists registered resource types sorted by name.
func (p *Provider) Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(p.handlers))
	for name, h := range p.handlers {
		out = append(out, TypeInfo{TypeName: name, Properties: h.Properties()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeName < out[j].TypeName })
	return out
}

// Handle runs one lifecycle event. It never returns an error: failures are
// reported in the progress event.
func (p *Provider) Handle(ctx context.Context, req *model.Request) model.ProgressEvent {
	if req.Region == "" {
		req.Region = p.defaultRegion
	}
	if req.ClientRequestToken == "" {
		req.ClientRequestToken = uuid.NewString()
	}
	logger := p.logger.With(
		"action", req.Action,
		"resource_type", req.ResourceType,
		"logical_id", req.LogicalResourceID,
		"region", req.Region,
		"token", req.ClientRequestToken,
	)
	logger.Info("handling resource event")

	res, err := p.dispatch(ctx, req)
	if err != nil {
		code := errorCode(err)
		logger.Error("resource event failed", "error_code", code, "error", err)
		return model.ProgressEvent{
			Status:             model.StatusFailed,
			PhysicalResourceID: req.PhysicalResourceID,
			ClientRequestToken: req.ClientRequestToken,
			Message:            err.Error(),
			ErrorCode:          code,
		}
	}

	physicalID := res.PhysicalResourceID
	if physicalID == "" {
		physicalID = req.PhysicalResourceID
	}
	logger.Info("resource event succeeded", "physical_id", physicalID)
	return model.ProgressEvent{
		Status:             model.StatusSuccess,
		ResourceModel:      res.Model,
		PhysicalResourceID: physicalID,
		ClientRequestToken: req.ClientRequestToken,
	}
}

func (p *Provider) dispatch(ctx context.Context, req *model.Request) (Result, error) {
	h, ok := p.handlers[req.ResourceType]
	if !ok {
		return Result{}, &RequestError{Reason: fmt.Sprintf("unknown resource type %q", req.ResourceType)}
	}
	switch req.Action {
	case model.ActionCreate:
		return h.Create(ctx, req)
	case model.ActionUpdate:
		return h.Update(ctx, req)
	case model.ActionDelete:
		return h.Delete(ctx, req)
	case model.ActionRead:
		return h.Read(ctx, req)
	default:
		return Result{}, &RequestError{Reason: fmt.Sprintf("unsupported action %q", req.Action)}
	}
}

func errorCode(err error) model.ErrorCode {
	var (
		reqErr      *RequestError
		decreaseErr *quota.DecreaseError
		invalidErr  *model.InvalidValueError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &decreaseErr), errors.As(err, &invalidErr):
		return model.ErrorCodeInvalidRequest
	case errors.Is(err, model.ErrNotFound):
		return model.ErrorCodeNotFound
	default:
		return model.ErrorCodeGeneralServiceException
	}
}
