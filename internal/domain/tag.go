package domain

import (
	"maps"
	"slices"
	"strings"
)

// Tag is a user-scoped label attached to notes.
// (UserID, Text) is unique: two users may share a text but never a tag ID.
//
// Tag is a comparable value type, so two tags with the same ID, UserID and
// Text are the same set member.
type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// TagUsage is a tag together with the number of notes it is attached to.
type TagUsage struct {
	Tag
	Count int `json:"count"`
}

// TagSet is a set of tags deduplicated by (ID, UserID, Text).
type TagSet map[Tag]struct{}

// NewTagSet builds a set from the given tags.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts a tag into the set.
func (s TagSet) Add(t Tag) {
	s[t] = struct{}{}
}

// Contains reports whether the set holds the tag.
func (s TagSet) Contains(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Len returns the number of tags in the set.
func (s TagSet) Len() int {
	return len(s)
}

// Equal reports whether both sets hold exactly the same tags.
func (s TagSet) Equal(other TagSet) bool {
	return maps.Equal(s, other)
}

// Texts returns the tag texts in ascending order.
func (s TagSet) Texts() []string {
	texts := make([]string, 0, len(s))
	for t := range s {
		texts = append(texts, t.Text)
	}
	slices.Sort(texts)
	return texts
}

// Sorted returns the tags ordered by text.
func (s TagSet) Sorted() []Tag {
	tags := make([]Tag, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	slices.SortFunc(tags, func(a, b Tag) int {
		return strings.Compare(a.Text, b.Text)
	})
	return tags
}

// ByText indexes the set by tag text.
func (s TagSet) ByText() map[string]Tag {
	m := make(map[string]Tag, len(s))
	for t := range s {
		m[t.Text] = t
	}
	return m
}

// SortedTexts returns the distinct texts in ascending order.
// Two tag lists describe the same tags when their SortedTexts are equal.
func SortedTexts(texts []string) []string {
	out := slices.Clone(texts)
	slices.Sort(out)
	return slices.Compact(out)
}
