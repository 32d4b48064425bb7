package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/workout-coach/internal/domain/prompt"
	"github.com/yanqian/workout-coach/internal/domain/usage"
	"github.com/yanqian/workout-coach/internal/domain/workout"
	"github.com/yanqian/workout-coach/pkg/metrics"
)

// Service runs the analysis request lifecycle.
type Service interface {
	Analyze(ctx context.Context, req Request) (Result, error)
	Get(ctx context.Context, userID string, activityID int64) (Result, error)
	Delete(ctx context.Context, userID string, activityID int64) error
	Reset(ctx context.Context, userID string) (int64, error)
	Usage(ctx context.Context, userID string) (usage.Snapshot, error)
	SetUsage(ctx context.Context, userID string, count int) (usage.Snapshot, error)
}

type service struct {
	cfg        Config
	repo       Repository
	quota      Quota
	locker     Locker
	generator  Generator
	builder    *prompt.Builder
	profiles   ProfileSource
	activities ActivitySource
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the orchestrator. activities may be nil when callers
// always send activity data inline.
func NewService(
	cfg Config,
	repo Repository,
	quota Quota,
	locker Locker,
	generator Generator,
	builder *prompt.Builder,
	profiles ProfileSource,
	activities ActivitySource,
	logger *slog.Logger,
) Service {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = workout.DefaultMaxSamples
	}
	return &service{
		cfg:        cfg,
		repo:       repo,
		quota:      quota,
		locker:     locker,
		generator:  generator,
		builder:    builder,
		profiles:   profiles,
		activities: activities,
		logger:     logger.With("component", "analysis.service"),
		now:        time.Now,
	}
}

func (s *service) Analyze(ctx context.Context, req Request) (Result, error) {
	res, err := s.analyze(ctx, req)
	switch {
	case err != nil:
		metrics.RecordAnalysis(string(KindOf(err)))
	case res.IsCached:
		metrics.RecordAnalysis("served_cached")
	default:
		metrics.RecordAnalysis("generated")
	}
	return res, err
}

func (s *service) analyze(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return Result{}, newError(KindUnauthorized, "sign in to analyze activities", nil)
	}
	if req.ActivityID <= 0 {
		return Result{}, newError(KindValidation, "activity id must be positive", nil)
	}

	unlock, err := s.lock(ctx, req.UserID, req.ActivityID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	cached, found, err := s.repo.Get(ctx, req.UserID, req.ActivityID)
	if err != nil {
		return Result{}, newError(KindUnknown, "failed to load cached analysis", err)
	}
	if found {
		if !req.ForceRefresh {
			s.logger.Info("serving cached analysis", "user_id", req.UserID, "activity_id", req.ActivityID)
			return s.toResult(cached, true), nil
		}
		if elapsed := s.now().Sub(cached.UpdatedAt); elapsed < s.cfg.Cooldown {
			wait := s.cfg.Cooldown - elapsed
			s.logger.Info("analysis refresh blocked by cooldown", "user_id", req.UserID, "activity_id", req.ActivityID, "retry_after_s", ceilSeconds(wait))
			return Result{}, &Error{
				Kind:          KindCooldownActive,
				Message:       fmt.Sprintf("analysis was refreshed recently, retry in %d seconds", ceilSeconds(wait)),
				RetryAfter:    wait,
				CachedContent: cached.Content,
			}
		}
	}

	snap, err := s.quota.Snapshot(ctx, req.UserID)
	if err != nil {
		return Result{}, newError(KindUnknown, "failed to read usage", err)
	}
	publishQuota(snap)
	if snap.Exhausted() {
		s.logger.Warn("daily analysis quota exhausted", "user_id", req.UserID, "limit", snap.Limit, "resets_in", snap.ResetsIn.String())
		failure := &Error{
			Kind:       KindQuotaExhausted,
			Message:    fmt.Sprintf("daily limit of %d analyses reached, resets in %s", snap.Limit, snap.ResetsIn.Round(time.Minute)),
			RetryAfter: snap.ResetsIn,
		}
		if found {
			failure.CachedContent = cached.Content
		}
		return Result{}, failure
	}

	profile, activity, samples, err := s.resolveInput(ctx, req)
	if err != nil {
		return Result{}, err
	}

	p, err := s.builder.Build(activity, samples, profile)
	if err != nil {
		return Result{}, newError(KindUnknown, "failed to build prompt", err)
	}

	gen, err := s.generate(ctx, p.Text)
	if err != nil {
		failure := s.classify(err)
		if found {
			failure.CachedContent = cached.Content
		}
		s.logger.Error("analysis generation failed", "user_id", req.UserID, "activity_id", req.ActivityID, "kind", failure.Kind, "error", err)
		return Result{}, failure
	}
	content := strings.TrimSpace(gen.Text)
	if content == "" {
		s.logger.Warn("generation returned empty text", "user_id", req.UserID, "activity_id", req.ActivityID)
		return Result{}, newError(KindEmptyResult, "the analysis service returned no text, try again", nil)
	}
	if s.cfg.MaxContentLength > 0 && len(content) > s.cfg.MaxContentLength {
		content = truncate(content, s.cfg.MaxContentLength)
	}

	stored, err := s.repo.Upsert(ctx, Record{
		UserID:        req.UserID,
		ActivityID:    req.ActivityID,
		Content:       content,
		Model:         gen.Model,
		PromptVersion: p.Version,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		return Result{}, newError(KindUnknown, "failed to store analysis", err)
	}
	if snap, err := s.quota.Consume(ctx, req.UserID); err != nil {
		s.logger.Error("failed to record analysis usage", "user_id", req.UserID, "error", err)
	} else {
		publishQuota(snap)
	}
	metrics.RecordTokens(gen.Usage)

	s.logger.Info("analysis generated", "user_id", req.UserID, "activity_id", req.ActivityID, "model", gen.Model, "prompt_version", p.Version, "samples", len(samples))
	result := s.toResult(stored, false)
	if !gen.Usage.IsZero() {
		tokens := gen.Usage
		result.TokenUsage = &tokens
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, userID string, activityID int64) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, newError(KindUnauthorized, "sign in to view analyses", nil)
	}
	record, found, err := s.repo.Get(ctx, userID, activityID)
	if err != nil {
		return Result{}, newError(KindUnknown, "failed to load analysis", err)
	}
	if !found {
		return Result{}, newError(KindNotFound, "no analysis stored for this activity", nil)
	}
	return s.toResult(record, true), nil
}

func (s *service) Delete(ctx context.Context, userID string, activityID int64) error {
	if strings.TrimSpace(userID) == "" {
		return newError(KindUnauthorized, "sign in to delete analyses", nil)
	}
	unlock, err := s.lock(ctx, userID, activityID)
	if err != nil {
		return err
	}
	defer unlock()

	deleted, err := s.repo.Delete(ctx, userID, activityID)
	if err != nil {
		return newError(KindUnknown, "failed to delete analysis", err)
	}
	if !deleted {
		return newError(KindNotFound, "no analysis stored for this activity", nil)
	}
	s.logger.Info("analysis deleted", "user_id", userID, "activity_id", activityID)
	return nil
}

func (s *service) Reset(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, newError(KindUnauthorized, "sign in to reset analyses", nil)
	}
	n, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, newError(KindUnknown, "failed to delete analyses", err)
	}
	s.logger.Info("analyses reset", "user_id", userID, "deleted", n)
	return n, nil
}

func (s *service) Usage(ctx context.Context, userID string) (usage.Snapshot, error) {
	snap, err := s.quota.Snapshot(ctx, userID)
	if err != nil {
		return usage.Snapshot{}, newError(KindUnknown, "failed to read usage", err)
	}
	return snap, nil
}

func (s *service) SetUsage(ctx context.Context, userID string, count int) (usage.Snapshot, error) {
	if count < 0 {
		return usage.Snapshot{}, newError(KindValidation, "usage count cannot be negative", nil)
	}
	snap, err := s.quota.Set(ctx, userID, count)
	if err != nil {
		return usage.Snapshot{}, newError(KindUnknown, "failed to update usage", err)
	}
	s.logger.Info("usage overridden", "user_id", userID, "count", count)
	return snap, nil
}

func (s *service) lock(ctx context.Context, userID string, activityID int64) (func(), error) {
	lockCtx := ctx
	if s.cfg.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.cfg.LockWait)
		defer cancel()
	}
	unlock, err := s.locker.Lock(lockCtx, lockKey(userID, activityID))
	if err == nil {
		return unlock, nil
	}
	if errors.Is(err, ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return nil, &Error{
			Kind:       KindCooldownActive,
			Message:    "an analysis for this activity is already in progress",
			RetryAfter: s.cfg.Cooldown,
			Err:        err,
		}
	}
	return nil, newError(KindUnknown, "failed to acquire analysis lock", err)
}

func (s *service) resolveInput(ctx context.Context, req Request) (workout.UserProfile, workout.Activity, []workout.Sample, error) {
	var profile workout.UserProfile
	switch {
	case req.Profile != nil:
		profile = *req.Profile
	case s.profiles != nil:
		stored, found, err := s.profiles.Lookup(ctx, req.UserID)
		if err != nil {
			return workout.UserProfile{}, workout.Activity{}, nil, newError(KindUnknown, "failed to load profile", err)
		}
		if !found {
			return workout.UserProfile{}, workout.Activity{}, nil, newError(KindValidation, "complete your physiological profile before requesting an analysis", nil)
		}
		profile = stored
	default:
		return workout.UserProfile{}, workout.Activity{}, nil, newError(KindValidation, "profile is required", nil)
	}
	if err := profile.Validate(); err != nil {
		return workout.UserProfile{}, workout.Activity{}, nil, newError(KindValidation, err.Error(), err)
	}

	var (
		activity workout.Activity
		samples  []workout.Sample
	)
	switch {
	case req.Activity != nil:
		activity, samples = *req.Activity, req.Samples
	case s.activities != nil && req.SourceToken != "":
		fetched, streams, err := s.activities.Activity(ctx, req.SourceToken, req.ActivityID)
		switch {
		case errors.Is(err, ErrActivityNotFound):
			return workout.UserProfile{}, workout.Activity{}, nil, newError(KindValidation, "activity not found", err)
		case errors.Is(err, ErrSourceUnauthorized):
			return workout.UserProfile{}, workout.Activity{}, nil, newError(KindUnauthorized, "activity source rejected the access token", err)
		case err != nil:
			return workout.UserProfile{}, workout.Activity{}, nil, newError(KindUpstreamUnavailable, "failed to fetch activity", err)
		}
		activity, samples = fetched, streams
	default:
		return workout.UserProfile{}, workout.Activity{}, nil, newError(KindValidation, "activity data is required", nil)
	}
	if activity.ID == 0 {
		activity.ID = req.ActivityID
	}
	return profile, activity, workout.Downsample(samples, s.cfg.MaxSamples), nil
}

func (s *service) generate(ctx context.Context, text string) (Generation, error) {
	if s.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		defer cancel()
	}
	start := time.Now()
	gen, err := s.generator.Generate(ctx, text)
	result := "ok"
	if err != nil {
		result = string(s.classify(err).Kind)
	}
	metrics.ObserveGeneration(time.Since(start), result)
	return gen, err
}

// classify maps backend failures onto the caller-facing taxonomy.
func (s *service) classify(err error) *Error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Reason {
		case ReasonRateLimited:
			wait := genErr.RetryAfter
			if wait <= 0 {
				wait = s.cfg.Cooldown
			}
			return &Error{
				Kind:       KindRateLimited,
				Message:    fmt.Sprintf("the analysis service is busy, retry in %d seconds", ceilSeconds(wait)),
				RetryAfter: wait,
				Err:        err,
			}
		case ReasonAuth, ReasonNotFound:
			return newError(KindAuthConfig, "the analysis service is misconfigured", err)
		case ReasonServer:
			return newError(KindUpstreamUnavailable, "the analysis service is temporarily unavailable", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindUpstreamUnavailable, "the analysis service timed out", err)
	}
	return unknownError(err)
}

func (s *service) toResult(record Record, cached bool) Result {
	return Result{
		ActivityID:     record.ActivityID,
		Content:        record.Content,
		IsCached:       cached,
		Model:          record.Model,
		PromptVersion:  record.PromptVersion,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		CooldownEndsAt: record.UpdatedAt.Add(s.cfg.Cooldown),
	}
}

func lockKey(userID string, activityID int64) string {
	return fmt.Sprintf("analysis:%s:%d", userID, activityID)
}

// publishQuota exports the remaining shared quota. Per-user counters are
// left out since one gauge cannot describe them.
func publishQuota(snap usage.Snapshot) {
	if snap.Shared {
		metrics.SetQuotaRemaining(snap.Remaining)
	}
}
