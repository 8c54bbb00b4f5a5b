// File: internal/usecase/transcription_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/adapter"
	"voicebridge/internal/domain/ports/repository"
	"voicebridge/internal/infra/logging"
	"voicebridge/internal/infra/metrics"
)

// Compile-time check
var _ TranscriptionUseCase = (*transcriptionUC)(nil)

// TranscriptionResult is what the message handlers get back. Denials and
// missing providers are values here, not errors.
type TranscriptionResult struct {
	Text     string
	Provider model.Provider
	Cost     int
	Deducted model.DeductResult
	Denied   bool
	Reason   string
}

// TranscriptionUseCase orchestrates one voice message end to end:
// admission check, provider selection, transcription, deduction and
// usage accounting.
type TranscriptionUseCase interface {
	Transcribe(ctx context.Context, userID string, audio adapter.Audio, preferred model.Provider) (*TranscriptionResult, error)
	LastTranscript(ctx context.Context, userID string) (string, error)
}

// ReasonRateLimited is returned when the per-user command window is
// exhausted.
const ReasonRateLimited = "rate_limited"

type transcriptionUC struct {
	credits CreditUseCase
	wit     WitUsageUseCase

	witAdapter  adapter.Transcriber
	groqAdapter adapter.Transcriber
	cache       repository.TranscriptCache
	limiter     repository.CommandLimiter

	log *zerolog.Logger
}

func NewTranscriptionUseCase(
	credits CreditUseCase,
	wit WitUsageUseCase,
	witAdapter, groqAdapter adapter.Transcriber,
	cache repository.TranscriptCache,
	limiter repository.CommandLimiter,
	logger *zerolog.Logger,
) *transcriptionUC {
	return &transcriptionUC{
		credits:     credits,
		wit:         wit,
		witAdapter:  witAdapter,
		groqAdapter: groqAdapter,
		cache:       cache,
		limiter:     limiter,
		log:         logger,
	}
}

func (u *transcriptionUC) Transcribe(ctx context.Context, userID string, audio adapter.Audio, preferred model.Provider) (*TranscriptionResult, error) {
	defer logging.TraceDuration(u.log, "TranscriptionUC.Transcribe")()

	cost := model.TokenCost(audio.Seconds)
	res := &TranscriptionResult{Cost: cost}

	if u.limiter != nil {
		allowed, err := u.limiter.Allow(ctx, userID, "transcribe")
		if err != nil {
			u.log.Warn().Err(err).Msg("command limiter unavailable, admitting")
		} else if !allowed {
			res.Denied = true
			res.Reason = ReasonRateLimited
			return res, nil
		}
	}

	unlimitedVoice, err := u.credits.HasUnlimitedVoiceAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !unlimitedVoice {
		allowed, reason, err := u.credits.CanPerformOperation(ctx, userID, cost)
		if err != nil {
			return nil, err
		}
		if !allowed {
			res.Denied = true
			res.Reason = reason
			return res, nil
		}
	}

	tier, err := u.credits.GetUserTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	witAvailable, err := u.wit.IsAvailable(ctx, audio.Language)
	if err != nil {
		return nil, err
	}

	provider := model.SelectTranscriptionProvider(tier, witAvailable, preferred, u.groqAdapter != nil && u.groqAdapter.Configured())
	if provider == model.ProviderNone {
		return res, domain.ErrNoProvider
	}
	res.Provider = provider

	var tr adapter.Transcriber
	switch provider {
	case model.ProviderWit:
		tr = u.witAdapter
	case model.ProviderGroq:
		tr = u.groqAdapter
	}
	text, err := tr.Transcribe(ctx, audio)
	metrics.ObserveTranscription(string(provider), audio.Seconds, err == nil)
	if err != nil {
		return nil, err
	}
	res.Text = text

	if provider == model.ProviderWit {
		if _, err := u.wit.Increment(ctx, audio.Language, 1); err != nil {
			u.log.Error().Err(err).Msg("wit usage increment failed")
		}
	}

	if !unlimitedVoice {
		deducted, err := u.credits.DeductCredits(ctx, userID, cost)
		if err != nil {
			return nil, err
		}
		res.Deducted = deducted
		metrics.AddCreditsSpent(deducted.FreeUsed + deducted.PurchasedUsed)
		if err := u.credits.RecordUserUsage(ctx, userID, audio.Seconds, deducted.FreeUsed, deducted.PurchasedUsed); err != nil {
			u.log.Error().Err(err).Msg("user usage record failed")
		}
	}
	if err := u.credits.IncrementUserStats(ctx, userID, audio.Seconds); err != nil {
		u.log.Error().Err(err).Msg("user stats increment failed")
	}
	if err := u.credits.IncrementTranscriptionStats(ctx, provider, audio.Seconds); err != nil {
		u.log.Error().Err(err).Msg("transcription stats increment failed")
	}

	if u.cache != nil {
		if err := u.cache.Store(ctx, userID, text); err != nil {
			u.log.Error().Err(err).Msg("transcript cache store failed")
		}
	}
	return res, nil
}

// LastTranscript returns the cached transcript, or "" when it expired.
func (u *transcriptionUC) LastTranscript(ctx context.Context, userID string) (string, error) {
	if u.cache == nil {
		return "", nil
	}
	return u.cache.Get(ctx, userID)
}
