package llm

// EstimateTokens approximates the token count of text without a tokenizer.
// ASCII runes weigh 1 and every other rune weighs 4; four weight units make a token.
func EstimateTokens(text string) int {
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}
