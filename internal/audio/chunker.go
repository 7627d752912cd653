package audio

import "strings"

// splitSentences breaks text into sentences, keeping terminal punctuation
// with each sentence. A sentence ends at '.', '!' or '?' followed by
// whitespace, or at a blank line.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if isSentenceEnd(runes, i) {
			sentence := strings.TrimSpace(current.String())
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?':
		return i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t'
	case '\n':
		return i+1 < len(runes) && runes[i+1] == '\n'
	}
	return false
}

// chunkSentences packs sentences into chunks of at most budget characters.
// Boundaries always fall between sentences so concatenated audio has no
// mid-sentence cuts; a single sentence over budget becomes its own chunk.
func chunkSentences(text string, budget int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > budget {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
