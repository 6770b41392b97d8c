package correction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

type fakeRuleRepo struct {
	rules []*entities.CorrectionRule
	err   error
}

func (f *fakeRuleRepo) ListByOwner(_ context.Context, _ uuid.UUID) ([]*entities.CorrectionRule, error) {
	return f.rules, f.err
}

func newEngine(rules ...*entities.CorrectionRule) *Engine {
	return NewEngine(&fakeRuleRepo{rules: rules}, zap.NewNop())
}

func TestApply_CaseInsensitiveLiteral(t *testing.T) {
	engine := newEngine(&entities.CorrectionRule{
		ID:          uuid.New(),
		FindText:    "solar dental",
		ReplaceText: "Solar Dental",
	})

	got, err := engine.Apply(context.Background(), uuid.New(), "thanks for calling SOLAR DENTAL, how can I help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "thanks for calling Solar Dental, how can I help"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApply_LiteralRuleIsNotRegex(t *testing.T) {
	// Dots in a literal rule must not act as wildcards.
	engine := newEngine(&entities.CorrectionRule{
		ID:          uuid.New(),
		FindText:    "a.c",
		ReplaceText: "xyz",
	})

	got, err := engine.Apply(context.Background(), uuid.New(), "abc a.c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abc xyz" {
		t.Fatalf("got %q, want %q", got, "abc xyz")
	}
}

func TestApply_ChainingInPriorityOrder(t *testing.T) {
	// The second rule rewrites the first rule's output; the repo
	// returns rules already sorted by priority.
	engine := newEngine(
		&entities.CorrectionRule{ID: uuid.New(), FindText: "acme", ReplaceText: "Acme Corp", Priority: 1},
		&entities.CorrectionRule{ID: uuid.New(), FindText: "Acme Corp", ReplaceText: "Acme Corporation", Priority: 2, CaseSensitive: true},
	)

	got, err := engine.Apply(context.Background(), uuid.New(), "call acme today")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "call Acme Corporation today" {
		t.Fatalf("got %q", got)
	}
}

func TestApply_InvalidRegexSkipped(t *testing.T) {
	engine := newEngine(
		&entities.CorrectionRule{ID: uuid.New(), FindText: "([", ReplaceText: "x", IsRegex: true},
		&entities.CorrectionRule{ID: uuid.New(), FindText: "foo", ReplaceText: "bar"},
	)

	got, err := engine.Apply(context.Background(), uuid.New(), "foo stays")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "bar stays" {
		t.Fatalf("invalid rule should be skipped, later rules applied; got %q", got)
	}
}

func TestApply_RegexRule(t *testing.T) {
	engine := newEngine(&entities.CorrectionRule{
		ID:          uuid.New(),
		FindText:    `\b(\d{3})(\d{4})\b`,
		ReplaceText: "$1-$2",
		IsRegex:     true,
	})

	got, err := engine.Apply(context.Background(), uuid.New(), "call 5551234 now")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "call 555-1234 now" {
		t.Fatalf("got %q", got)
	}
}

func TestApply_NoRules(t *testing.T) {
	engine := newEngine()
	got, err := engine.Apply(context.Background(), uuid.New(), "unchanged")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "unchanged" {
		t.Fatalf("got %q", got)
	}
}
