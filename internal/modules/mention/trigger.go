package mention

import (
	"strings"
	"unicode"

	"github.com/threadsync/core/internal/models"
)

// TriggerInfo describes an in-progress mention entry at the cursor.
// StartIndex is the rune index of the trigger character, needed to replace
// exactly the typed span once a candidate is selected.
type TriggerInfo struct {
	Type       models.MentionType `json:"type"`
	Query      string             `json:"query"`
	StartIndex int                `json:"startIndex"`
}

// PermissionFilter reports whether a mention type is allowed in the
// current UI context. It composes over Detect; it is not part of detection
// itself.
type PermissionFilter func(models.MentionType) bool

// Detect reports whether the user is mid-entry of a mention at the given
// cursor position. It finds the right-most trigger character at or before
// the cursor; any whitespace between trigger and cursor closes the trigger
// (so `user@example.com` stops opening a dropdown once a space follows).
// Indices are rune-based.
func Detect(text string, cursor int) *TriggerInfo {
	runes := []rune(text)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	if cursor < 0 {
		return nil
	}

	for i := cursor - 1; i >= 0; i-- {
		mt, ok := TypeForTrigger(runes[i])
		if !ok {
			continue
		}
		tail := runes[i+1 : cursor]
		for _, r := range tail {
			if unicode.IsSpace(r) {
				return nil
			}
		}
		return &TriggerInfo{
			Type:       mt,
			Query:      strings.ToLower(string(tail)),
			StartIndex: i,
		}
	}
	return nil
}

// DetectAllowed runs Detect and nulls out triggers whose type the context
// does not permit (field mentions are meaningless without a backing
// record).
func DetectAllowed(text string, cursor int, allowed PermissionFilter) *TriggerInfo {
	info := Detect(text, cursor)
	if info == nil {
		return nil
	}
	if allowed != nil && !allowed(info.Type) {
		return nil
	}
	return info
}
