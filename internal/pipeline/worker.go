package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docfill/internal/archive"
)

// Worker processes fill jobs.
type Worker struct {
	filler  *Filler
	archive *archive.Archive // optional
	log     *slog.Logger
}

func NewWorker(filler *Filler, arc *archive.Archive, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Worker{filler: filler, archive: arc, log: log}
}

// Process runs the fill pipeline for a job and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	req := job.request()
	req.OnPhase = func(s JobStatus, phase string) {
		log.Debug("phase", "status", s, "phase", phase)
		job.SetStatus(s, phase)
	}

	out, err := w.filler.Fill(ctx, req)
	if out != nil {
		job.record(out)
	}
	if err != nil {
		log.Error("fill failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, failedPhase(job))
		return
	}

	res := out.Result
	log.Info("fill complete",
		"strategy", res.Strategy,
		"inserted", res.ItemsInserted,
		"planned", res.ItemsPlanned,
		"errors", len(res.Errors),
		"success", res.Success)

	w.archiveOutcome(ctx, log, job, out)

	switch {
	case !res.Success:
		job.SetStatus(StatusFailed, "validating")
	case len(res.Errors) > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// archiveOutcome records the analysis and fill report. Archive failures are
// logged and never fail the job.
func (w *Worker) archiveOutcome(ctx context.Context, log *slog.Logger, job *Job, out *FillOutcome) {
	if w.archive == nil {
		return
	}
	if err := w.archive.RecordAnalysis(ctx, out.Hash, job.Filename, out.Summary); err != nil {
		log.Warn("archive analysis failed", "error", err)
		return
	}
	res := out.Result
	report := archive.FillReport{
		Strategy:       string(res.Strategy),
		Success:        res.Success,
		ZonesProcessed: res.ZonesProcessed,
		ItemsInserted:  res.ItemsInserted,
		ItemsPlanned:   res.ItemsPlanned,
		PlanConfidence: res.PlanConfidence,
		Warnings:       res.Warnings,
		Errors:         res.Errors,
	}
	if err := w.archive.RecordFill(ctx, out.Hash, job.ID, report); err != nil {
		log.Warn("archive fill report failed", "error", err)
	}
}

func failedPhase(job *Job) string {
	snap := job.Snapshot()
	return fmt.Sprintf("failed while %s", snap.Phase)
}
