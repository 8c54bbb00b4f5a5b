package model

// Provider identifies a speech-to-text or generative backend.
type Provider string

const (
	ProviderWit        Provider = "wit"
	ProviderGroq       Provider = "groq"
	ProviderGemini     Provider = "gemini"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
)

// ProviderNone means no backend is eligible for this request.
const ProviderNone Provider = ""

// SelectTranscriptionProvider picks a transcription backend.
//
// Wit is the default: zero marginal cost but capped by a monthly free
// tier. Groq is the paid-side fallback and is never exposed to the free
// tier. An explicit Groq preference is honored only when Groq is
// configured; otherwise the choice silently falls back to Wit if that is
// still available.
func SelectTranscriptionProvider(tier Tier, witAvailable bool, preferred Provider, groqConfigured bool) Provider {
	if tier == TierFree {
		if witAvailable {
			return ProviderWit
		}
		return ProviderNone
	}

	if preferred == ProviderGroq && groqConfigured {
		return ProviderGroq
	}
	if witAvailable {
		return ProviderWit
	}
	if groqConfigured {
		return ProviderGroq
	}
	return ProviderNone
}
