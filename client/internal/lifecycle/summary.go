package lifecycle

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/entrystore"
)

// Summary is the day's intake against the calorie goal.
type Summary struct {
	Date    time.Time
	Goal    int
	Totals  analysis.Macros
	Targets analysis.Macros

	Ready   int
	Pending int
	Failed  int
}

// Targets splits a calorie goal into 25% protein, 45% carbs and 30% fat,
// in grams.
func Targets(goal int) analysis.Macros {
	g := float64(goal)
	return analysis.Macros{
		Calories: g,
		Protein:  math.Round(g * 0.25 / 4),
		Carbs:    math.Round(g * 0.45 / 4),
		Fat:      math.Round(g * 0.30 / 9),
	}
}

// Summary totals the active day. Only food results count.
func (o *Orchestrator) Summary() Summary {
	s := Summary{Date: o.ActiveDate(), Goal: o.Goal()}
	s.Targets = Targets(s.Goal)
	for _, e := range o.Entries() {
		switch e.Class() {
		case entrystore.ClassReady:
			s.Ready++
			m := e.Analysis().TotalMacros
			s.Totals.Calories += m.Calories
			s.Totals.Protein += m.Protein
			s.Totals.Carbs += m.Carbs
			s.Totals.Fat += m.Fat
		case entrystore.ClassPending:
			s.Pending++
		default:
			s.Failed++
		}
	}
	return s
}

// Goal returns the current calorie goal.
func (o *Orchestrator) Goal() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.goal
}

// LoadSettings fetches the goal from the service.
func (o *Orchestrator) LoadSettings(ctx context.Context) (int, error) {
	res := o.gw.GetSettings(ctx, o.userID)
	if !res.Success {
		return o.Goal(), persistenceError("get settings", res)
	}
	o.mu.Lock()
	o.goal = res.Data.CalorieGoal
	o.mu.Unlock()
	return res.Data.CalorieGoal, nil
}

// UpdateGoal stores a new calorie goal.
func (o *Orchestrator) UpdateGoal(ctx context.Context, goal int) error {
	if goal <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidGoal, goal)
	}
	res := o.gw.UpdateSettings(ctx, o.userID, goal)
	if !res.Success {
		log.Warn().Int("status", res.StatusCode).Str("error", res.Error).Msg("goal not saved")
		o.notifier.Alert(MsgGoalFailed)
		return persistenceError("update settings", res)
	}
	o.mu.Lock()
	o.goal = res.Data.CalorieGoal
	o.mu.Unlock()
	return nil
}
