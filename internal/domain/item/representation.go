package item

// Representation names of the precomputed embeddings.
const (
	Full        = "full"
	Contextual  = "contextual"
	KeyPhrases  = "key_phrases"
	Summary     = "summary"
	NoStopwords = "no_stopwords"
	// Enhanced is blended at load time from Full, Contextual and KeyPhrases.
	Enhanced = "enhanced"
)

// DefaultWeights are the per-representation multipliers applied to cosine similarity.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		Full:        1.0,
		Contextual:  0.9,
		KeyPhrases:  0.85,
		Summary:     0.8,
		NoStopwords: 0.75,
		Enhanced:    1.1,
	}
}

// UnknownWeight applies to representation names absent from the weight table.
const UnknownWeight = 0.5

// Blend builds the enhanced representation: 0.4*full + 0.4*contextual + 0.2*third.
// third falls back to full when key phrases are missing. Returns nil when
// full and contextual are absent or differ in length.
func Blend(reps map[string][]float32) []float32 {
	full, okF := reps[Full]
	ctx, okC := reps[Contextual]
	if !okF || !okC || len(full) == 0 || len(full) != len(ctx) {
		return nil
	}
	third, ok := reps[KeyPhrases]
	if !ok || len(third) != len(full) {
		third = full
	}
	out := make([]float32, len(full))
	for i := range full {
		out[i] = 0.4*full[i] + 0.4*ctx[i] + 0.2*third[i]
	}
	return out
}
