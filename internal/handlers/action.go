package handlers

import (
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"go.uber.org/zap"
)

// OptimisticAction is a speculative state transition paired with its
// inverse. Apply runs first so readers see the effect immediately; if the
// authoritative mutation then fails, Revert undoes it. This replaces
// hand-rolled increment/decrement/rollback code at each call site.
type OptimisticAction struct {
	Name string

	// Apply performs the speculative local transition
	Apply func() error

	// Mutate performs the authoritative change
	Mutate func() error

	// Revert is the inverse of Apply, run only when Mutate fails
	Revert func() error
}

// Execute runs the action. A failed Apply aborts before Mutate; a failed
// Revert is logged since the authoritative failure is what the caller sees.
func (a OptimisticAction) Execute() error {
	if err := a.Apply(); err != nil {
		return err
	}

	if err := a.Mutate(); err != nil {
		if revertErr := a.Revert(); revertErr != nil {
			logger.Log.Error("Optimistic revert failed, counters may drift until rescore",
				zap.String("action", a.Name),
				zap.Error(revertErr))
		}
		return err
	}
	return nil
}
