package history

// EstimateTokens estimates the token count for text using the chars/4
// approximation. Fast heuristic; actual tokenization varies by model.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateTurnTokens sums the estimated tokens across turns, including a
// small per-turn overhead for role framing.
func EstimateTurnTokens(turns []Turn) int {
	total := 0
	for _, t := range turns {
		total += EstimateTokens(t.Text) + 4
	}
	return total
}

// ContextInfo reports context-window usage for a turn sequence.
type ContextInfo struct {
	TokenCount int
	MaxTokens  int
	Percentage float64
	TurnCount  int
}

// Usage computes context-window usage against a model's maximum context.
// A non-positive maxTokens yields a zero percentage.
func Usage(turns []Turn, maxTokens int) ContextInfo {
	info := ContextInfo{
		TokenCount: EstimateTurnTokens(turns),
		MaxTokens:  maxTokens,
		TurnCount:  len(turns),
	}
	if maxTokens > 0 {
		info.Percentage = float64(info.TokenCount) / float64(maxTokens) * 100
	}
	return info
}
