package analyzer

import (
	"strings"

	"github.com/kailas-cloud/linkdex/internal/rules"
)

// normalizeDialect rewrites colloquial words and phrases to their formal form
// and drops colloquial filler. Matching is on whole tokens so a replacement
// never fires inside a longer word.
func normalizeDialect(a *rules.AnalyzerRules, folded string) string {
	tokens := strings.Fields(folded)
	if len(tokens) == 0 {
		return ""
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if to, n := matchReplacement(a.Dialect, tokens[i:]); n > 0 {
			out = append(out, strings.Fields(to)...)
			i += n
			continue
		}
		out = append(out, tokens[i])
		i++
	}

	kept := out[:0]
	for i := 0; i < len(out); {
		if n := matchPhrase(a.ColloquialStopWords, out[i:]); n > 0 {
			i += n
			continue
		}
		kept = append(kept, out[i])
		i++
	}
	return strings.Join(kept, " ")
}

// matchReplacement returns the first replacement whose phrase prefixes tokens.
func matchReplacement(reps []rules.Replacement, tokens []string) (string, int) {
	for _, r := range reps {
		if n := prefixLen(strings.Fields(r.From), tokens); n > 0 {
			return r.To, n
		}
	}
	return "", 0
}

// matchPhrase returns the token length of the longest phrase prefixing tokens.
func matchPhrase(phrases []string, tokens []string) int {
	best := 0
	for _, p := range phrases {
		if n := prefixLen(strings.Fields(p), tokens); n > best {
			best = n
		}
	}
	return best
}

func prefixLen(phrase, tokens []string) int {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return 0
	}
	for i, w := range phrase {
		if tokens[i] != w {
			return 0
		}
	}
	return len(phrase)
}
