package model

// ValidateSanctions reports whether a pair of sanction maps submitted by an
// agent is well formed: every key of both maps must be one of the allowed
// anonymized indices and the combined token spend must not exceed maxTokens.
// Spending exactly maxTokens is valid.
func ValidateSanctions(positive, negative map[int]int, maxTokens int, allowed []int) bool {
	allowedSet := make(map[int]struct{}, len(allowed))
	for _, idx := range allowed {
		allowedSet[idx] = struct{}{}
	}

	total := 0
	for idx, tokens := range positive {
		if _, ok := allowedSet[idx]; !ok {
			return false
		}
		total += tokens
	}
	for idx, tokens := range negative {
		if _, ok := allowedSet[idx]; !ok {
			return false
		}
		total += tokens
	}
	return total <= maxTokens
}
