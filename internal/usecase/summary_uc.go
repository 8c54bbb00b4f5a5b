// File: internal/usecase/summary_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/adapter"
	"voicebridge/internal/domain/ports/repository"
	"voicebridge/internal/infra/logging"
)

// Compile-time check
var _ SummaryUseCase = (*summaryUC)(nil)

// summaryCost is the flat charge for one post-processing request.
const summaryCost = 1

// SummaryUseCase runs the cached transcript through the generative
// fallback chain. An empty SummaryResult.Text with Denied unset means
// every provider was exhausted; the caller phrases that softly.
type SummaryUseCase interface {
	Summarize(ctx context.Context, userID string) (*SummaryResult, error)
}

type SummaryResult struct {
	Text     string
	Cost     int
	Deducted model.DeductResult
	Denied   bool
	Reason   string
}

type summaryUC struct {
	credits    CreditUseCase
	completion adapter.CompletionService
	cache      repository.TranscriptCache

	log *zerolog.Logger
}

func NewSummaryUseCase(
	credits CreditUseCase,
	completion adapter.CompletionService,
	cache repository.TranscriptCache,
	logger *zerolog.Logger,
) *summaryUC {
	return &summaryUC{credits: credits, completion: completion, cache: cache, log: logger}
}

func (u *summaryUC) Summarize(ctx context.Context, userID string) (*SummaryResult, error) {
	defer logging.TraceDuration(u.log, "SummaryUC.Summarize")()

	res := &SummaryResult{Cost: summaryCost}

	transcript, err := u.cache.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript) == "" {
		res.Denied = true
		res.Reason = "no_transcript"
		return res, nil
	}

	unlimited, err := u.credits.HasUnlimitedAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !unlimited {
		allowed, reason, err := u.credits.CanPerformOperation(ctx, userID, summaryCost)
		if err != nil {
			return nil, err
		}
		if !allowed {
			res.Denied = true
			res.Reason = reason
			return res, nil
		}
	}

	prompt := fmt.Sprintf("Summarize the following voice message transcript in its own language, briefly:\n\n%s", transcript)
	text, err := u.completion.Complete(ctx, adapter.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   512,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}
	res.Text = text
	if text == "" {
		// chain exhausted, nothing charged
		return res, nil
	}

	if !unlimited {
		deducted, err := u.credits.DeductCredits(ctx, userID, summaryCost)
		if err != nil {
			return nil, err
		}
		res.Deducted = deducted
	}
	return res, nil
}
