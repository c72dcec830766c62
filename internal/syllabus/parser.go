// Package syllabus parses the compact edital syntax into an ordered outline
// of subjects and topics. Pure functions: text in, structure out. No database
// dependencies, safe to call repeatedly for previews.
//
// Grammar:
//
//	SubjectName-topic1,topic2;OtherSubject-topicA,topicB
//
// Subject blocks are separated by ';'. Inside a block, the subject name is
// everything before the FIRST '-' (names may contain further hyphens) and
// topics are comma-separated.
package syllabus

import "strings"

// ParsedSubject is one subject block of the outline in source order.
type ParsedSubject struct {
	Name   string
	Topics []string
}

// Outline is the parsed syllabus structure, ordered as written.
type Outline []ParsedSubject

// TopicCount returns the total number of topics across all subjects.
func (o Outline) TopicCount() int {
	n := 0
	for _, s := range o {
		n += len(s.Topics)
	}
	return n
}

// Parse converts the edital syntax into an Outline.
//
// Validation rules, applied in order per block:
//   - the whole input must be non-empty after trimming
//   - at least one non-empty block must remain after splitting on ';'
//   - every block must contain a '-'
//   - the subject name (before the first '-') must be non-empty
//   - subject names must be unique case-insensitively within one call
//   - at least one topic must remain after trimming, dropping empties and
//     collapsing exact-string duplicates (first occurrence wins)
//
// All failures are *ParseError values carrying the offending block.
func Parse(raw string) (Outline, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ParseError{Kind: ErrEmptyInput}
	}

	var blocks []string
	for _, piece := range strings.Split(trimmed, ";") {
		if p := strings.TrimSpace(piece); p != "" {
			blocks = append(blocks, p)
		}
	}
	if len(blocks) == 0 {
		return nil, &ParseError{Kind: ErrNoSubjects}
	}

	outline := make(Outline, 0, len(blocks))
	seen := make(map[string]struct{}, len(blocks))

	for _, block := range blocks {
		name, topicsRaw, found := strings.Cut(block, "-")
		if !found {
			return nil, &ParseError{Kind: ErrMalformedBlock, Block: block}
		}

		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &ParseError{Kind: ErrEmptySubjectName, Block: block}
		}

		// Duplicate detection is case-insensitive on the trimmed name.
		folded := strings.ToLower(name)
		if _, dup := seen[folded]; dup {
			return nil, &ParseError{Kind: ErrDuplicateSubject, Block: name}
		}
		seen[folded] = struct{}{}

		topics := splitTopics(topicsRaw)
		if len(topics) == 0 {
			return nil, &ParseError{Kind: ErrNoTopics, Block: name}
		}

		outline = append(outline, ParsedSubject{Name: name, Topics: topics})
	}

	return outline, nil
}

// splitTopics splits a comma-separated topic list, trims entries, drops
// empties and collapses exact-string duplicates preserving first-seen order.
// Topic dedup is case-SENSITIVE: "Algebra" and "algebra" are distinct.
func splitTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for _, part := range parts {
		topic := strings.TrimSpace(part)
		if topic == "" {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}

	return topics
}
