package migration

// descriptionChunkLimitConstant is the character ceiling of the target
// system's pull request description field; longer bodies spill into a
// follow-up discussion thread.
const descriptionChunkLimitConstant = 4000

// splitIntoChunks cuts text into rune chunks of at most chunkLimit characters.
// Concatenating the returned chunks reproduces the input exactly.
func splitIntoChunks(text string, chunkLimit int) []string {
	if len(text) == 0 {
		return nil
	}
	if chunkLimit <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)/chunkLimit)+1)
	for chunkStart := 0; chunkStart < len(runes); chunkStart += chunkLimit {
		chunkEnd := chunkStart + chunkLimit
		if chunkEnd > len(runes) {
			chunkEnd = len(runes)
		}
		chunks = append(chunks, string(runes[chunkStart:chunkEnd]))
	}
	return chunks
}
