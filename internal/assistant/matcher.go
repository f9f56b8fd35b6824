package assistant

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/capefasteners/supply-ai-platform/internal/knowledge"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// fallbackScore is the fixed score assigned to fallback pattern hits.
const fallbackScore = 0.3

type compiledPattern struct {
	id            string
	intent        Intent
	re            *regexp.Regexp
	keywords      []string
	keywordPhrase string
	priority      int
}

// Matcher normalizes visitor text, resolves synonyms to canonical terms and
// evaluates the intent pattern library. It is immutable after construction
// and safe for concurrent use.
type Matcher struct {
	patterns    []compiledPattern
	fallbacks   []compiledPattern
	synonyms    map[string]string
	locations   []knowledge.SynonymEntry
	maxPriority int
	logger      *logging.Logger
}

// NewMatcher compiles the pattern library. A pattern that fails to compile is
// a configuration error and aborts construction.
func NewMatcher(base *knowledge.Base, logger *logging.Logger) (*Matcher, error) {
	if base == nil {
		panic("assistant: knowledge base cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	m := &Matcher{
		synonyms:  make(map[string]string),
		locations: base.Synonyms.Locations,
		logger:    logger,
	}

	for _, entry := range base.Synonyms.Synonyms {
		canonical := strings.ToLower(strings.TrimSpace(entry.Canonical))
		for _, v := range entry.Variants {
			m.synonyms[strings.ToLower(strings.TrimSpace(v))] = canonical
		}
	}

	var err error
	if m.patterns, err = compilePatterns(base.Patterns.Patterns); err != nil {
		return nil, err
	}
	if m.fallbacks, err = compilePatterns(base.Patterns.FallbackPatterns); err != nil {
		return nil, err
	}

	for _, p := range m.patterns {
		if p.priority > m.maxPriority {
			m.maxPriority = p.priority
		}
	}
	return m, nil
}

func compilePatterns(src []knowledge.IntentPattern) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(src))
	for _, p := range src {
		re, err := regexp.Compile(p.Expression)
		if err != nil {
			return nil, fmt.Errorf("assistant: compile pattern %q: %w", p.ID, err)
		}
		keywords := make([]string, 0, len(p.Keywords))
		for _, k := range p.Keywords {
			keywords = append(keywords, strings.ToLower(strings.TrimSpace(k)))
		}
		out = append(out, compiledPattern{
			id:            p.ID,
			intent:        Intent(p.Intent),
			re:            re,
			keywords:      keywords,
			keywordPhrase: strings.Join(keywords, " "),
			priority:      p.Priority,
		})
	}
	return out, nil
}

// Normalize lowercases text, strips punctuation outside a safe set and
// collapses whitespace. It is idempotent on already-normalized input.
func (m *Matcher) Normalize(text string) string {
	lowered := strings.ToLower(text)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '.' || r == '/' || r == '#':
			return r
		default:
			return ' '
		}
	}, lowered)
	return strings.Join(strings.Fields(mapped), " ")
}

// Canonicalize replaces synonym and typo tokens with their canonical terms.
// It returns the canonical text and the list of canonical terms that were
// reached through a synonym. Unmapped tokens pass through unchanged.
func (m *Matcher) Canonicalize(normalized string) (string, []string) {
	tokens := strings.Fields(normalized)
	var used []string
	for i, tok := range tokens {
		if canonical, ok := m.synonyms[tok]; ok && canonical != tok {
			tokens[i] = canonical
			used = append(used, canonical)
		}
	}
	return strings.Join(tokens, " "), used
}

// Match evaluates every pattern against both the literal normalized text and
// the synonym-canonicalized text, returning scored candidates ordered by
// score descending (ties broken by declared priority). When nothing in the
// primary library hits, the fallback library is tried at a fixed low score.
func (m *Matcher) Match(text string) []PatternMatch {
	normalized := m.Normalize(text)
	canonical, synonymsUsed := m.Canonicalize(normalized)

	matches := m.evalPatterns(m.patterns, normalized, canonical, synonymsUsed)
	if len(matches) == 0 {
		matches = m.evalFallbacks(normalized, canonical, synonymsUsed)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return m.priorityOf(matches[i].PatternID) > m.priorityOf(matches[j].PatternID)
	})
	return matches
}

func (m *Matcher) evalPatterns(patterns []compiledPattern, normalized, canonical string, synonymsUsed []string) []PatternMatch {
	var out []PatternMatch
	for _, p := range patterns {
		if !p.re.MatchString(normalized) && !p.re.MatchString(canonical) {
			continue
		}
		out = append(out, PatternMatch{
			PatternID:    p.id,
			Intent:       p.intent,
			Score:        m.score(p, canonical, synonymsUsed),
			MatchType:    MatchTypePattern,
			SynonymsUsed: synonymsUsed,
		})
	}
	return out
}

func (m *Matcher) evalFallbacks(normalized, canonical string, synonymsUsed []string) []PatternMatch {
	var out []PatternMatch
	for _, p := range m.fallbacks {
		if !p.re.MatchString(normalized) && !p.re.MatchString(canonical) {
			continue
		}
		out = append(out, PatternMatch{
			PatternID:    p.id,
			Intent:       p.intent,
			Score:        fallbackScore,
			MatchType:    MatchTypeFallback,
			SynonymsUsed: synonymsUsed,
		})
	}
	return out
}

// score implements the match scoring formula: base 0.5, keyword overlap up
// to 0.3, priority bonus up to 0.1, synonym bonus up to 0.1, and 0.15 when
// the joined keyword phrase appears verbatim. Capped at 1.0.
func (m *Matcher) score(p compiledPattern, canonical string, synonymsUsed []string) float64 {
	score := 0.5

	if len(p.keywords) > 0 {
		matched := 0
		for _, kw := range p.keywords {
			if containsWord(canonical, kw) {
				matched++
			}
		}
		score += 0.3 * float64(matched) / float64(len(p.keywords))
	}

	if m.maxPriority > 0 {
		score += 0.1 * float64(p.priority) / float64(m.maxPriority)
	}

	if n := len(synonymsUsed); n > 0 {
		score += math.Min(0.1, 0.05*float64(n))
	}

	if p.keywordPhrase != "" && strings.Contains(canonical, p.keywordPhrase) {
		score += 0.15
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (m *Matcher) priorityOf(patternID string) int {
	for _, p := range m.patterns {
		if p.id == patternID {
			return p.priority
		}
	}
	for _, p := range m.fallbacks {
		if p.id == patternID {
			return p.priority
		}
	}
	return 0
}

// containsWord reports whether word occurs in text on word boundaries.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || text[start-1] == ' '
		afterOK := end == len(text) || text[end] == ' '
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}
