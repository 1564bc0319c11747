package models

import "strings"

// SegmentType discriminates comment content segments.
type SegmentType string

const (
	SegmentText    SegmentType = "text"
	SegmentMention SegmentType = "mention"
)

// CommentSegment is one unit of comment content: literal text or a
// resolved mention.
type CommentSegment struct {
	Type    SegmentType `json:"type"`
	Content string      `json:"content,omitempty"`
	Mention *Mention    `json:"mention,omitempty"`
}

// TextSegment builds a text segment.
func TextSegment(content string) CommentSegment {
	return CommentSegment{Type: SegmentText, Content: content}
}

// MentionSegment builds a mention segment.
func MentionSegment(m Mention) CommentSegment {
	return CommentSegment{Type: SegmentMention, Mention: &m}
}

// IsContentEmpty reports whether the segment list carries no meaningful
// content: no mentions and only whitespace text.
func IsContentEmpty(segments []CommentSegment) bool {
	for _, s := range segments {
		switch s.Type {
		case SegmentMention:
			return false
		case SegmentText:
			if strings.TrimSpace(s.Content) != "" {
				return false
			}
		}
	}
	return true
}

// PlainText concatenates the text content of all text segments.
func PlainText(segments []CommentSegment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Type == SegmentText {
			b.WriteString(s.Content)
		}
	}
	return b.String()
}
