package assistant

import (
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

const (
	// confidenceThreshold is the minimum top score for a classification to
	// be accepted rather than reported as UNKNOWN with suggestions.
	confidenceThreshold = 0.6
	// ambiguityMargin flags a result when the top two candidates score
	// within this distance of each other.
	ambiguityMargin = 0.1
	maxSuggestions  = 3
)

// Classifier turns matcher output into a single accepted (or rejected)
// intent with extracted parameters.
type Classifier struct {
	matcher *Matcher
	logger  *logging.Logger
}

// NewClassifier wires a classifier around the supplied matcher.
func NewClassifier(matcher *Matcher, logger *logging.Logger) *Classifier {
	if matcher == nil {
		panic("assistant: matcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{matcher: matcher, logger: logger}
}

// Classify evaluates one message against the pattern library, merging
// conversational context into the extracted parameters.
func (c *Classifier) Classify(text string, ctx Context) Result {
	entities := c.matcher.ExtractEntities(text)
	matches := c.matcher.Match(text)

	if len(matches) == 0 {
		return Result{
			Intent:      IntentUnknown,
			Confidence:  0,
			Entities:    entities,
			Params:      map[string]string{},
			Suggestions: defaultSuggestions(),
		}
	}

	top := matches[0]
	params := c.buildParams(top.Intent, text, entities, ctx)

	if top.Score < confidenceThreshold {
		c.logger.Debug("classification below threshold",
			"best_guess", top.Intent, "score", top.Score, "pattern", top.PatternID)
		return Result{
			Intent:      IntentUnknown,
			Confidence:  top.Score,
			BestGuess:   top.Intent,
			Entities:    entities,
			Params:      params,
			Suggestions: suggestionsFrom(matches),
		}
	}

	result := Result{
		Intent:     top.Intent,
		Confidence: top.Score,
		Entities:   entities,
		Params:     params,
	}

	if len(matches) > 1 && top.Score-matches[1].Score < ambiguityMargin {
		result.Ambiguous = true
		result.Contenders = contendersWithin(matches, top.Score)
	}
	return result
}

// suggestionsFrom builds up to three alternatives from the ranked
// candidates, deduplicated by intent.
func suggestionsFrom(matches []PatternMatch) []Suggestion {
	var out []Suggestion
	seen := make(map[Intent]struct{})
	for _, m := range matches {
		if _, dup := seen[m.Intent]; dup {
			continue
		}
		seen[m.Intent] = struct{}{}
		out = append(out, Suggestion{Intent: m.Intent, Score: m.Score})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// contendersWithin lists the distinct intents scoring within the ambiguity
// margin of the top score, the top candidate's own intent included.
func contendersWithin(matches []PatternMatch, topScore float64) []Intent {
	var out []Intent
	seen := make(map[Intent]struct{})
	for _, m := range matches {
		if topScore-m.Score >= ambiguityMargin {
			break
		}
		if _, dup := seen[m.Intent]; dup {
			continue
		}
		seen[m.Intent] = struct{}{}
		out = append(out, m.Intent)
	}
	return out
}

func defaultSuggestions() []Suggestion {
	return []Suggestion{
		{Intent: IntentProductSearch},
		{Intent: IntentPriceQuote},
		{Intent: IntentContact},
	}
}
