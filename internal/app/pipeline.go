package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/plugin"
	"github.com/ayusman/posecoach/internal/session"
)

// worker analyzes queued videos one at a time until ctx is done.
func (a *App) worker(ctx context.Context, id int) {
	defer a.workers.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-a.jobs:
			a.process(ctx, j)
			a.logger.Debug("worker idle", "worker", id)
		}
	}
}

// process runs one job and records its outcome.
func (a *App) process(ctx context.Context, j job) {
	defer a.release(j.session.ID())

	logger := a.logger.With("session", j.session.ID(), "path", j.path)
	logger.Info("video analysis started", "exercise", j.session.ExerciseType())

	rec, err := a.analyzeVideo(ctx, j.session, j.path)

	result := string(rec.Status)
	switch {
	case errors.Is(err, session.ErrClosed):
		// Closed by a client while the video was being read
		result = "aborted"
		logger.Warn("video analysis aborted", "err", err)
	case err != nil:
		result = string(session.StatusFailed)
		logger.Error("video analysis failed", "err", err)
	case rec.Status == session.StatusFailed:
		logger.Error("video analysis failed", "err", rec.Error)
	default:
		logger.Info("video analysis finished",
			"status", rec.Status, "frames", rec.Summary.FramesProcessed, "overall", overall(rec.Summary))
	}

	if a.config.Metrics != nil {
		a.config.Metrics.VideoJob(result)
	}
}

// videoDetector returns the detector for one video job and a func releasing it.
func (a *App) videoDetector() (detector.Detector, func(), error) {
	if a.config.NewVideoDetector == nil {
		return a.detector, func() {}, nil
	}
	det, err := a.config.NewVideoDetector()
	if err != nil {
		return nil, nil, err
	}
	return det, func() {
		if err := det.Close(); err != nil {
			a.logger.Warn("error closing video detector", "err", err)
		}
	}, nil
}

// analyzeVideo reads every frame of the video at path, detects a pose in it
// and submits it to s with timestamp index / fps. A frame the detector cannot
// analyze is recorded without a pose. The session is finished at end of
// stream, cancelled when ctx is done and failed on read errors or after
// MaxConsecutiveDetectErrors detector errors in a row.
func (a *App) analyzeVideo(ctx context.Context, s *session.Session, path string) (session.Record, error) {
	src := a.config.OpenSource(path)
	if err := src.Open(); err != nil {
		return s.Fail(fmt.Errorf("open video: %w", err))
	}
	defer src.Close()

	det, release, err := a.videoDetector()
	if err != nil {
		return s.Fail(fmt.Errorf("start detector: %w", err))
	}
	defer release()

	s.SetExpectedFrames(src.FrameCount())

	fps := src.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}

	detectErrors := 0
	for index := 0; ; index++ {
		select {
		case <-ctx.Done():
			return s.Cancel()
		default:
		}

		frame, err := src.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			return s.Finish()
		}
		if err != nil {
			return s.Fail(fmt.Errorf("read frame %d: %w", index, err))
		}

		set, err := det.Detect(frame)
		frame.Close()
		if err != nil {
			detectErrors++
			if a.config.Metrics != nil {
				a.config.Metrics.DetectorError()
			}
			if detectErrors >= MaxConsecutiveDetectErrors {
				return s.Fail(fmt.Errorf("detect frame %d: %d consecutive errors: %w", index, detectErrors, err))
			}
			a.logger.Warn("pose detection failed, recording frame without pose",
				"session", s.ID(), "frame", index, "err", err)
			set = nil
		} else {
			detectErrors = 0
		}

		if _, err := s.Submit(index, float64(index)/fps, set); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return s.Record(), err
			}
			return s.Fail(fmt.Errorf("submit frame %d: %w", index, err))
		}
	}
}

// target is one plugin execution for a completed session.
type target struct {
	plugin *plugin.Plugin
	action string
	config json.RawMessage
}

// pluginTargets resolves which plugins run for rec. Plugins advertising
// session_complete run with an empty config unless the store holds actions
// naming them; such plugins run once per enabled action matching the
// session's exercise type.
func (a *App) pluginTargets(rec session.Record) []target {
	plugins := a.pluginMgr.ForAction(plugin.ActionSessionComplete)
	if len(plugins) == 0 {
		return nil
	}

	configured := make(map[string]bool)
	matching := make(map[string][]target)
	if a.config.Store != nil {
		all, err := a.config.Store.Actions().List()
		if err != nil {
			a.logger.Error("failed to list actions", "err", err)
			return nil
		}
		for _, act := range all {
			configured[act.PluginName] = true
		}

		bound, err := a.config.Store.Actions().ListForExercise(string(rec.ExerciseType))
		if err != nil {
			a.logger.Error("failed to list actions", "exercise", rec.ExerciseType, "err", err)
			return nil
		}
		for _, act := range bound {
			matching[act.PluginName] = append(matching[act.PluginName], target{
				action: act.ActionName,
				config: act.Config,
			})
		}
	}

	var out []target
	for _, p := range plugins {
		if !configured[p.Manifest.Name] {
			out = append(out, target{plugin: p, action: plugin.ActionSessionComplete, config: json.RawMessage("{}")})
			continue
		}
		for _, t := range matching[p.Manifest.Name] {
			if !p.Manifest.Supports(t.action) {
				a.logger.Warn("plugin does not support bound action", "plugin", p.Manifest.Name, "action", t.action)
				continue
			}
			t.plugin = p
			out = append(out, t)
		}
	}
	return out
}

// runPlugins executes every plugin target for a completed session. Failures
// are logged and never affect the session.
func (a *App) runPlugins(ctx context.Context, rec session.Record) {
	for _, t := range a.pluginTargets(rec) {
		req := &plugin.Request{
			Action:  t.action,
			Session: &rec,
			Config:  t.config,
		}

		resp, err := a.pluginExec.Execute(ctx, t.plugin, req)
		if err != nil {
			a.logger.Error("plugin execution failed", "plugin", t.plugin.Manifest.Name, "session", rec.ID, "err", err)
			continue
		}
		if !resp.Success {
			a.logger.Warn("plugin reported failure", "plugin", t.plugin.Manifest.Name, "session", rec.ID, "error", resp.Error)
			continue
		}
		a.logger.Info("plugin executed", "plugin", t.plugin.Manifest.Name, "session", rec.ID, "action", t.action)
	}
}

func overall(s session.Summary) any {
	if s.Score == nil {
		return nil
	}
	return s.Score.Overall
}
