package quota

import (
	"context"
	"errors"

	"github.com/yuxishi/quota-provider/internal/model"
)

// stage is one step of a pass. It either lets the pass continue
// (decisionContinue), settles the property, or fails it.
type stage struct {
	name string
	run  func(context.Context, *pass) (Decision, error)
}

// Order: unchanged -> previous -> pending -> current/default -> submit.
func (r *Reconciler) stages() []stage {
	return []stage{
		{name: "unchanged", run: r.checkUnchanged},
		{name: "previous", run: r.checkPrevious},
		{name: "pending", run: r.checkPending},
		{name: "current", run: r.checkCurrent},
		{name: "submit", run: r.submit},
	}
}

func (r *Reconciler) checkUnchanged(_ context.Context, p *pass) (Decision, error) {
	if p.previous != nil && *p.previous == p.target {
		return DecisionUnchanged, nil
	}
	return decisionContinue, nil
}

func (r *Reconciler) checkPrevious(_ context.Context, p *pass) (Decision, error) {
	if p.previous == nil {
		return decisionContinue, nil
	}
	p.logger.Debug("comparing with previous value", "previous", *p.previous)
	if p.target < *p.previous {
		return decisionContinue, p.decrease(SourcePrevious, *p.previous)
	}
	return decisionContinue, nil
}

func (r *Reconciler) checkPending(ctx context.Context, p *pass) (Decision, error) {
	records, err := r.client.ChangeHistory(ctx, p.identity)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Debug("no change history for quota")
		return decisionContinue, nil
	}
	if err != nil {
		return decisionContinue, err
	}

	open, ok := latestOpen(records)
	if !ok {
		p.logger.Debug("no open change request", "records", len(records))
		return decisionContinue, nil
	}
	p.logger.Debug("found open change request",
		"request_id", open.ID, "status", open.Status, "pending", open.DesiredValue)
	return p.compare(SourcePending, open.DesiredValue, DecisionAlreadyRequested)
}

func (r *Reconciler) checkCurrent(ctx context.Context, p *pass) (Decision, error) {
	current, err := r.client.CurrentValue(ctx, p.identity)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Debug("quota not customized, using default value")
		def, err := r.client.DefaultValue(ctx, p.identity)
		if err != nil {
			return decisionContinue, err
		}
		p.logger.Debug("comparing with default value", "default", def)
		return p.compare(SourceDefault, def, DecisionAlreadySatisfied)
	}
	if err != nil {
		return decisionContinue, err
	}
	p.logger.Debug("comparing with current value", "current", current)
	return p.compare(SourceCurrent, current, DecisionAlreadySatisfied)
}

func (r *Reconciler) submit(ctx context.Context, p *pass) (Decision, error) {
	req, err := r.client.RequestIncrease(ctx, p.identity, p.target)
	if err != nil {
		return decisionContinue, err
	}
	p.logger.Info("requested quota increase",
		"request_id", req.ID, "case_id", req.CaseID, "status", req.Status)
	p.request = &req
	return DecisionRequested, nil
}

// compare fails when value is above the target, settles with onEqual when it
// matches and continues when it is below.
func (p *pass) compare(against Source, value float64, onEqual Decision) (Decision, error) {
	switch {
	case value > p.target:
		return decisionContinue, p.decrease(against, value)
	case value == p.target:
		return onEqual, nil
	default:
		return decisionContinue, nil
	}
}

func (p *pass) decrease(against Source, value float64) error {
	return &DecreaseError{
		Property: p.property,
		Identity: p.identity,
		Desired:  p.target,
		Against:  against,
		Value:    value,
	}
}

// latestOpen picks the most recently created PENDING or CASE_OPENED record.
// Records without a creation time keep their listed order.
func latestOpen(records []model.ChangeRecord) (model.ChangeRecord, bool) {
	var latest model.ChangeRecord
	found := false
	for _, rec := range records {
		if !rec.Status.Open() {
			continue
		}
		if !found || rec.Created.After(latest.Created) {
			latest = rec
			found = true
		}
	}
	return latest, found
}
