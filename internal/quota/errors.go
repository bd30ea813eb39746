package quota

import (
	"fmt"

	"github.com/yuxishi/quota-provider/internal/model"
)

// Source names the value a desired quota was compared against.
type Source string

const (
	SourcePrevious Source = "previous"
	SourcePending  Source = "pending request"
	SourceCurrent  Source = "current"
	SourceDefault  Source = "default"
)

// DecreaseError is returned when a pass would lower a quota. Service Quotas
// only accepts increase requests.
type DecreaseError struct {
	Property string
	Identity model.QuotaIdentity
	Desired  float64
	Against  Source
	Value    float64
}

func (e *DecreaseError) Error() string {
	return fmt.Sprintf("cannot decrease quota %s (%s): desired value %g is lower than the %s value %g",
		e.Property, e.Identity, e.Desired, e.Against, e.Value)
}
