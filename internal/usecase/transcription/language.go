package transcription

import (
	"strings"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// Garbled-output thresholds. These are heuristics tuned on real call
// transcripts, not exact science; the tests document the boundaries.
const (
	longTokenLength    = 15 // a token longer than this is suspicious
	longTokenLimit     = 5  // more than this many long tokens = garbled
	lowercaseRunLength = 20 // contiguous lowercase letters, no spaces
	lowercaseRunLimit  = 3  // more than this many runs = garbled
	spanishMarkerLimit = 2  // distinct markers needed to doubt an "en" label
)

// greetingPrompt steers the model past the automated greeting that
// opens most inbound calls (15-30s of IVR in the platform's default
// language) so it does not lock onto the wrong locale.
const greetingPrompt = "This is a phone call recording. The first 15-30 seconds may contain an automated greeting or IVR menu. Transcribe the conversation in the language the participants actually speak."

// rerunPrompt is the stronger steering used for the single quality
// re-run after a suspicious first result.
const rerunPrompt = "This is a phone call recording. Ignore any automated greeting at the start. The conversation may be in Spanish or English; detect the spoken language carefully and transcribe it accurately."

// Hint is the language/prompt pair handed to the provider.
type Hint struct {
	Language string
	Prompt   string
}

// ChooseHint picks the provider hints for a call. An explicit caller
// language always wins verbatim. Inbound calls with no explicit
// language get the greeting-skip prompt and auto-detection; outbound
// calls get plain auto-detection, no steering.
func ChooseHint(call *entities.Call, explicitLanguage, explicitPrompt string) Hint {
	if explicitLanguage != "" {
		return Hint{Language: explicitLanguage, Prompt: explicitPrompt}
	}
	if explicitPrompt != "" {
		return Hint{Prompt: explicitPrompt}
	}
	if call.Direction == entities.CallDirectionInbound {
		return Hint{Prompt: greetingPrompt}
	}
	return Hint{}
}

// RerunHint returns the hints for the quality re-run: auto-detect with
// the stronger steering prompt.
func RerunHint() Hint {
	return Hint{Prompt: rerunPrompt}
}

// IsLikelyGarbled flags transcripts that look like decoder noise:
// too many very long tokens, or too many long unbroken lowercase runs.
func IsLikelyGarbled(text string) bool {
	longTokens := 0
	for _, token := range strings.Fields(text) {
		if len(token) > longTokenLength {
			longTokens++
			if longTokens > longTokenLimit {
				return true
			}
		}
	}

	runs := 0
	run := 0
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			run++
			continue
		}
		if run >= lowercaseRunLength {
			runs++
			if runs > lowercaseRunLimit {
				return true
			}
		}
		run = 0
	}
	if run >= lowercaseRunLength {
		runs++
	}
	return runs > lowercaseRunLimit
}

// spanishMarkers are common Spanish phrases that should not appear in
// a correctly-labeled English transcript.
var spanishMarkers = []string{
	"gracias",
	"por favor",
	"buenos días",
	"buenas tardes",
	"hasta luego",
	"¿",
	"usted",
	"muy bien",
}

// HasSpanishMarkers reports whether text contains at least
// spanishMarkerLimit distinct Spanish marker phrases.
func HasSpanishMarkers(text string) bool {
	lower := strings.ToLower(text)
	distinct := 0
	for _, marker := range spanishMarkers {
		if strings.Contains(lower, marker) {
			distinct++
			if distinct >= spanishMarkerLimit {
				return true
			}
		}
	}
	return false
}

// NeedsQualityRerun decides whether a first transcription attempt is
// suspicious enough to warrant the single quality re-run. Only inbound
// auto-detected results are second-guessed: an explicit caller language
// is trusted, and outbound calls have no greeting to misdetect against.
func NeedsQualityRerun(call *entities.Call, hint Hint, language, text string) bool {
	if call.Direction != entities.CallDirectionInbound {
		return false
	}
	if hint.Language != "" {
		return false
	}
	if IsLikelyGarbled(text) {
		return true
	}
	return IsEnglish(language) && HasSpanishMarkers(text)
}

// IsSpanish matches the language labels providers use for Spanish.
func IsSpanish(language string) bool {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "es", "spa", "spanish":
		return true
	}
	return false
}

// IsEnglish matches the language labels providers use for English.
func IsEnglish(language string) bool {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "en", "eng", "english":
		return true
	}
	return false
}
