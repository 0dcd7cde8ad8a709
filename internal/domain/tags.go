package domain

import (
	"sort"
	"strings"
)

// NormalizeTags splits a raw comma-separated tag string into a
// deduplicated, case-preserving tag set. Whitespace is trimmed and
// empty entries dropped; first occurrence wins on duplicates.
func NormalizeTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// TagsMatch reports whether a meeting's tag set matches a filter set:
// true iff the filter is non-empty and at least one filter term equals
// a stored tag exactly. No partial-token matches ("lab" never matches
// "labs").
func TagsMatch(meetingTags []string, filter []string) bool {
	if len(filter) == 0 {
		return false
	}

	stored := make(map[string]struct{}, len(meetingTags))
	for _, tag := range meetingTags {
		stored[tag] = struct{}{}
	}
	for _, term := range filter {
		if _, ok := stored[strings.TrimSpace(term)]; ok {
			return true
		}
	}
	return false
}

// AllTags returns the sorted union of tags across a collection of
// meetings, for stable display.
func AllTags(meetings []Meeting) []string {
	seen := make(map[string]struct{})
	for i := range meetings {
		for _, tag := range meetings[i].Tags {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
