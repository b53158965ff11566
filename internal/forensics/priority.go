package forensics

import "strings"

// fallbackOrder is appended for categories the instructions never mention.
var fallbackOrder = []MediaCategory{CategoryDocuments, CategoryVideo, CategoryImages, CategoryAudio}

var priorityKeywords = []struct {
	category MediaCategory
	words    []string
}{
	{CategoryAudio, []string{"transcript", "audio"}},
	{CategoryImages, []string{"image", "photo", "fake"}},
	{CategoryVideo, []string{"video", "clip", "mp4"}},
	{CategoryDocuments, []string{"doc", "file", "text"}},
}

// ParsePriority derives a category processing order from free-text user
// instructions. Explicitly mentioned categories come first in keyword-match
// order; the rest follow in the fixed fallback order. The result is always
// a permutation of the four supported categories.
func ParsePriority(instructions string) []MediaCategory {
	instr := strings.ToLower(instructions)
	order := make([]MediaCategory, 0, 4)
	seen := make(map[MediaCategory]bool, 4)

	for _, entry := range priorityKeywords {
		for _, w := range entry.words {
			if strings.Contains(instr, w) {
				if !seen[entry.category] {
					order = append(order, entry.category)
					seen[entry.category] = true
				}
				break
			}
		}
	}
	for _, cat := range fallbackOrder {
		if !seen[cat] {
			order = append(order, cat)
			seen[cat] = true
		}
	}
	return order
}
