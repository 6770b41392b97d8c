package correction

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/repositories"
)

// Engine applies a user's correction rules to transcript text.
// Rules run sequentially in priority order, so a later rule sees the
// output of earlier ones.
type Engine struct {
	ruleRepo repositories.CorrectionRuleRepository
	logger   *zap.Logger
}

// NewEngine creates a correction engine
func NewEngine(ruleRepo repositories.CorrectionRuleRepository, logger *zap.Logger) *Engine {
	return &Engine{
		ruleRepo: ruleRepo,
		logger:   logger,
	}
}

// Apply runs the owner's rules against text and returns the corrected
// result. A rule that fails to compile is logged and skipped; one bad
// rule must not block the rest.
func (e *Engine) Apply(ctx context.Context, ownerID uuid.UUID, text string) (string, error) {
	rules, err := e.ruleRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if len(rules) == 0 {
		return text, nil
	}

	result := text
	applied := 0
	for _, rule := range rules {
		pattern := rule.FindText
		if !rule.IsRegex {
			pattern = regexp.QuoteMeta(pattern)
		}
		if !rule.CaseSensitive {
			pattern = "(?i)" + pattern
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			e.logger.Warn("⚠️ Skipping invalid correction rule",
				zap.String("rule_id", rule.ID.String()),
				zap.String("find_text", rule.FindText),
				zap.Error(err))
			continue
		}

		result = re.ReplaceAllString(result, rule.ReplaceText)
		applied++
	}

	if applied > 0 {
		e.logger.Debug("🪄 Correction rules applied",
			zap.String("owner_id", ownerID.String()),
			zap.Int("applied", applied),
			zap.Int("total", len(rules)))
	}
	return result, nil
}
