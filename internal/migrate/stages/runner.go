package stages

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// RunStages executes stages in order, recording timing and stopping on the
// first fatal error. With a checkpointer, stages a previous attempt completed
// are replayed from the journal instead of executed (resume mode only).
func RunStages(ctx context.Context, st *models.State, defs []models.StageDef, obs models.Observer, cp models.Checkpointer) error {
	if obs == nil {
		obs = models.NoopObserver{}
	}
	res := st.Result
	for _, def := range defs {
		select {
		case <-ctx.Done():
			se := models.NewCanceledStageError(def.Name, ctx.Err())
			res.StageResults[def.Name] = models.StageResultCanceled
			obs.OnStageComplete(def.Name, 0, models.StageResultCanceled)
			return se
		default:
		}

		st.SetStage(def.Name)

		if cp != nil && st.Options.Resume {
			replayed, err := replay(ctx, st, def.Name, cp)
			if err != nil {
				return models.NewFatalStageError(def.Name, err)
			}
			if replayed {
				res.StageResults[def.Name] = models.StageResultResumed
				obs.OnStageComplete(def.Name, 0, models.StageResultResumed)
				continue
			}
		}

		obs.OnStageStart(def.Name)
		firstChange, firstWarning := len(res.Changes), len(res.Warnings)

		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)
		res.StageDurations[def.Name] = dur

		result := classify(err)
		if result == models.StageResultSuccess && len(res.Warnings) > firstWarning {
			result = models.StageResultWarning
		}
		res.StageResults[def.Name] = result
		obs.OnStageComplete(def.Name, dur, result)

		st.Logger.Debug("stage complete", logfields.Stage(string(def.Name)), logfields.DurationMS(float64(dur.Microseconds())/1000), logfields.Count(len(res.Changes)-firstChange))

		if err != nil {
			var se *models.StageError
			if stdErrors.As(err, &se) {
				if se.Kind == models.StageErrorWarning {
					st.Warnf("%s", se.Err)
					continue
				}
				return se
			}
			if result == models.StageResultCanceled {
				return models.NewCanceledStageError(def.Name, err)
			}
			return models.NewFatalStageError(def.Name, err)
		}

		if cp != nil {
			if err := cp.Checkpoint(ctx, def.Name, res.Changes[firstChange:], res.Warnings[firstWarning:]); err != nil {
				st.Logger.Warn("checkpoint failed", logfields.Stage(string(def.Name)), logfields.Error(err))
			}
		}
	}
	return nil
}

func classify(err error) models.StageResult {
	if err == nil {
		return models.StageResultSuccess
	}
	var se *models.StageError
	if stdErrors.As(err, &se) {
		switch se.Kind {
		case models.StageErrorWarning:
			return models.StageResultWarning
		case models.StageErrorCanceled:
			return models.StageResultCanceled
		}
		return models.StageResultFatal
	}
	if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) || errors.HasCategory(err, errors.CategoryCanceled) {
		return models.StageResultCanceled
	}
	return models.StageResultFatal
}

func replay(ctx context.Context, st *models.State, stage models.StageName, cp models.Checkpointer) (bool, error) {
	changes, warnings, ok, err := cp.Completed(ctx, stage)
	if err != nil || !ok {
		return false, err
	}
	for _, c := range changes {
		st.Claim(c.FilePath)
		st.RecordChange(c)
	}
	for _, w := range warnings {
		st.Result.AddWarning(w)
	}
	if stage == models.StageConfig {
		if err := RestoreSite(st); err != nil {
			st.Logger.Warn("site settings not restored", logfields.Error(err))
		}
	}
	st.Result.ResumedStages = append(st.Result.ResumedStages, stage)
	st.Logger.Info("stage resumed from journal", logfields.Stage(string(stage)), slog.Int("changes", len(changes)))
	return true, nil
}
