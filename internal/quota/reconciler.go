// Package quota brings Service Quotas up to the values a resource model asks
// for. It never lowers a quota and never files a request that duplicates or
// undercuts one already in flight.
package quota

import (
	"context"
	"log/slog"

	"github.com/yuxishi/quota-provider/internal/model"
)

// Client is the part of the Service Quotas API a pass drives. Lookups
// report a missing object with an error matching model.ErrNotFound; every
// other error is returned to the caller untouched.
type Client interface {
	ChangeHistory(ctx context.Context, id model.QuotaIdentity) ([]model.ChangeRecord, error)
	CurrentValue(ctx context.Context, id model.QuotaIdentity) (float64, error)
	DefaultValue(ctx context.Context, id model.QuotaIdentity) (float64, error)
	RequestIncrease(ctx context.Context, id model.QuotaIdentity, value float64) (model.ChangeRecord, error)
}

// Decision is what a pass concluded for one property.
type Decision string

const (
	decisionContinue         Decision = ""
	DecisionUnchanged        Decision = "unchanged"
	DecisionAlreadyRequested Decision = "already_requested"
	DecisionAlreadySatisfied Decision = "already_satisfied"
	DecisionRequested        Decision = "requested"
)

type Outcome struct {
	Property string
	Identity model.QuotaIdentity
	Desired  float64
	Decision Decision
	// Request is set when an increase was submitted.
	Request *model.ChangeRecord
}

type Reconciler struct {
	client Client
	logger *slog.Logger
}

func NewReconciler(client Client, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{client: client, logger: logger}
}

// Reconcile visits every property of table that desired sets, in table
// order, and runs the stage pipeline for it. The first error stops the
// pass; increases already submitted for earlier properties stay submitted.
func (r *Reconciler) Reconcile(ctx context.Context, table Table, previous, desired model.Properties) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, table.Len())
	for _, m := range table.mappings {
		p, ok, err := newPass(m, previous, desired)
		if err != nil {
			return outcomes, err
		}
		if !ok {
			continue
		}
		p.logger = r.logger.With(
			"property", p.property,
			"service_code", p.identity.ServiceCode,
			"quota_code", p.identity.QuotaCode,
			"desired", p.target,
		)

		decision, err := r.run(ctx, p)
		if err != nil {
			p.logger.Error("quota reconciliation failed", "error", err)
			return outcomes, err
		}
		outcomes = append(outcomes, Outcome{
			Property: p.property,
			Identity: p.identity,
			Desired:  p.target,
			Decision: decision,
			Request:  p.request,
		})
	}
	return outcomes, nil
}

// pass carries the state of one property through the stages.
type pass struct {
	property string
	identity model.QuotaIdentity
	target   float64
	previous *float64
	request  *model.ChangeRecord
	logger   *slog.Logger
}

func newPass(m Mapping, previous, desired model.Properties) (*pass, bool, error) {
	target, ok, err := desired.Float(m.Property)
	if err != nil || !ok {
		return nil, false, err
	}
	p := &pass{property: m.Property, identity: m.Identity, target: target}

	prev, ok, err := previous.Float(m.Property)
	if err != nil {
		return nil, false, err
	}
	if ok {
		p.previous = &prev
	}
	return p, true, nil
}

func (r *Reconciler) run(ctx context.Context, p *pass) (Decision, error) {
	for _, s := range r.stages() {
		decision, err := s.run(ctx, p)
		if err != nil {
			return decisionContinue, err
		}
		if decision != decisionContinue {
			p.logger.Info("quota reconciled", "stage", s.name, "decision", decision)
			return decision, nil
		}
		p.logger.Debug("stage passed", "stage", s.name)
	}
	// submit always decides, so this is unreachable with the default stages.
	return decisionContinue, nil
}
