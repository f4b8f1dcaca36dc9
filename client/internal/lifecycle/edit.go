package lifecycle

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/entrystore"
)

// EditRequest corrects a ready entry. Nil fields are left as they are.
// Name replaces the summary; the macros replace the totals. Food items are
// never touched.
type EditRequest struct {
	Name     *string
	Calories *float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
}

func (r EditRequest) validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidEdit)
	}
	for field, v := range map[string]*float64{
		"calories": r.Calories, "protein": r.Protein, "carbs": r.Carbs, "fat": r.Fat,
	} {
		if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidEdit, field)
		}
	}
	return nil
}

func (r EditRequest) apply(cur *analysis.Result) *analysis.Result {
	out := cur.Clone()
	if r.Name != nil {
		out.Summary = strings.TrimSpace(*r.Name)
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&out.TotalMacros.Calories, r.Calories)
	set(&out.TotalMacros.Protein, r.Protein)
	set(&out.TotalMacros.Carbs, r.Carbs)
	set(&out.TotalMacros.Fat, r.Fat)
	return out
}

// Edit stores a corrected analysis. The service is updated first; the local
// entry changes only after it accepts.
func (o *Orchestrator) Edit(ctx context.Context, id string, req EditRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	e, ok := o.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	cur := e.Analysis()
	if cur == nil {
		return ErrNotEditable
	}
	merged := req.apply(cur)

	res := o.gw.UpdateEntryAnalysis(ctx, o.userID, id, merged)
	if !res.Success {
		perr := persistenceError("update entry analysis", res)
		log.Warn().Str("entry_id", id).Int("status", res.StatusCode).Str("error", res.Error).Msg("edit not saved")
		o.notifier.Alert(MsgEditFailed)
		return perr
	}
	o.store.SetState(id, entrystore.Ready{Analysis: merged})
	return nil
}
