package enrich

import (
	"regexp"
	"sort"
	"strings"
)

// Pure content transformations used whenever the reasoning service is
// unavailable. Same content always yields the same summary and tags.

var (
	sentenceSplitRe = regexp.MustCompile(`(?:[.!?])\s+`)
	nonWordRe       = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	spaceRe         = regexp.MustCompile(`\s+`)
	tagCleanRe      = regexp.MustCompile(`[^\w\s/-]`)
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "for", "that", "with", "from", "this", "have", "has",
		"had", "was", "were", "are", "you", "your", "his", "her", "its",
		"but", "not", "out", "about", "into", "they", "their", "them",
		"who", "what", "when", "where", "why", "how", "will", "would",
		"can", "could", "should", "between", "after", "before", "over",
		"under", "onto", "more", "most", "some", "any", "each", "other",
		"than", "also", "may", "might", "must", "shall", "been", "being",
	} {
		stopwords[w] = struct{}{}
	}
}

// fallbackSummary is extractive: the first three sentences, capped at 180
// words.
func fallbackSummary(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}
	sentences := splitSentences(trimmed)
	take := len(sentences)
	if take > 3 {
		take = 3
	}
	summary := strings.TrimSpace(strings.Join(sentences[:take], " "))
	words := strings.Fields(summary)
	if len(words) > 180 {
		summary = strings.Join(words[:180], " ")
	}
	if summary == "" {
		runes := []rune(trimmed)
		if len(runes) > 200 {
			runes = runes[:200]
		}
		summary = string(runes)
	}
	return summary
}

func splitSentences(text string) []string {
	locs := sentenceSplitRe.FindAllStringIndex(text, -1)
	var out []string
	last := 0
	for _, loc := range locs {
		out = append(out, strings.TrimSpace(text[last:loc[0]+1]))
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// fallbackTags picks the maxTags most frequent non-stopword tokens, ordered
// by frequency desc then lexicographically for a stable result.
func fallbackTags(content string, maxTags int) []string {
	if maxTags <= 0 {
		maxTags = 8
	}
	text := nonWordRe.ReplaceAllString(strings.ToLower(content), " ")
	freq := make(map[string]int)
	for _, token := range strings.Fields(text) {
		if len(token) <= 2 {
			continue
		}
		if _, ok := stopwords[token]; ok {
			continue
		}
		freq[token]++
	}
	type entry struct {
		token string
		count int
	}
	entries := make([]entry, 0, len(freq))
	for token, count := range freq {
		entries = append(entries, entry{token: token, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].token < entries[j].token
	})
	if len(entries) > maxTags {
		entries = entries[:maxTags]
	}
	tags := make([]string, 0, len(entries))
	for _, e := range entries {
		tags = append(tags, e.token)
	}
	return tags
}

// NormalizeTags lowercases, collapses whitespace, strips punctuation except
// hyphen and slash, drops single-character leftovers and case-variant
// duplicates. Order of first occurrence is preserved.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		clean := strings.ToLower(strings.TrimSpace(tag))
		clean = spaceRe.ReplaceAllString(clean, " ")
		clean = tagCleanRe.ReplaceAllString(clean, "")
		clean = strings.TrimSpace(clean)
		if len([]rune(clean)) <= 1 {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}
