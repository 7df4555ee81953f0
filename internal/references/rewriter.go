package references

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	linkReplacementTemplateConstant  = "<a href=\"%s\">#%d</a>"
	plainReplacementTemplateConstant = "#%d"
)

// textSegment is a piece of the rewritten text. Segments produced by a
// replacement are frozen so later mapping entries never rescan them.
type textSegment struct {
	content string
	frozen  bool
}

// Rewrite replaces every mention of a mapped source number inside text with a
// reference to the created target entity. A mention is the literal
// mentionPrefix immediately followed by the source number and a word boundary;
// the boundary check keeps numerically overlapping numbers (1 and 12) from
// corrupting one another. Mapping entries are applied in insertion order and
// replaced output is never rescanned, so every occurrence is substituted at
// most once. Mentions of unmapped numbers are left untouched, and an empty
// mapping returns text unchanged.
func Rewrite(text string, mapping *Mapping, mentionPrefix string, asLink bool) string {
	if mapping == nil || mapping.Len() == 0 || len(text) == 0 {
		return text
	}

	segments := []textSegment{{content: text}}

	for _, sourceNumber := range mapping.Numbers() {
		target, exists := mapping.Lookup(sourceNumber)
		if !exists {
			continue
		}

		mentionToken := mentionPrefix + strconv.Itoa(sourceNumber)
		replacement := formatReplacement(target, asLink)
		segments = replaceInSegments(segments, mentionToken, replacement)
	}

	var rewrittenText strings.Builder
	for _, segment := range segments {
		rewrittenText.WriteString(segment.content)
	}
	return rewrittenText.String()
}

func formatReplacement(target Target, asLink bool) string {
	if asLink && len(target.URL) > 0 {
		return fmt.Sprintf(linkReplacementTemplateConstant, target.URL, target.ID)
	}
	return fmt.Sprintf(plainReplacementTemplateConstant, target.ID)
}

func replaceInSegments(segments []textSegment, mentionToken string, replacement string) []textSegment {
	updatedSegments := make([]textSegment, 0, len(segments))
	for _, segment := range segments {
		if segment.frozen {
			updatedSegments = append(updatedSegments, segment)
			continue
		}
		updatedSegments = append(updatedSegments, splitAroundMentions(segment.content, mentionToken, replacement)...)
	}
	return updatedSegments
}

func splitAroundMentions(content string, mentionToken string, replacement string) []textSegment {
	var producedSegments []textSegment
	remainingContent := content

	for {
		matchIndex := findMentionIndex(remainingContent, mentionToken)
		if matchIndex < 0 {
			break
		}

		if matchIndex > 0 {
			producedSegments = append(producedSegments, textSegment{content: remainingContent[:matchIndex]})
		}
		producedSegments = append(producedSegments, textSegment{content: replacement, frozen: true})
		remainingContent = remainingContent[matchIndex+len(mentionToken):]
	}

	if len(remainingContent) > 0 || len(producedSegments) == 0 {
		producedSegments = append(producedSegments, textSegment{content: remainingContent})
	}
	return producedSegments
}

func findMentionIndex(content string, mentionToken string) int {
	searchOffset := 0
	for {
		relativeIndex := strings.Index(content[searchOffset:], mentionToken)
		if relativeIndex < 0 {
			return -1
		}

		matchIndex := searchOffset + relativeIndex
		boundaryIndex := matchIndex + len(mentionToken)
		if boundaryIndex >= len(content) || !isWordCharacter(content[boundaryIndex]) {
			return matchIndex
		}

		searchOffset = matchIndex + 1
	}
}

func isWordCharacter(character byte) bool {
	switch {
	case character >= '0' && character <= '9':
		return true
	case character >= 'a' && character <= 'z':
		return true
	case character >= 'A' && character <= 'Z':
		return true
	case character == '_':
		return true
	default:
		return false
	}
}
