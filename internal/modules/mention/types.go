package mention

import (
	"errors"
	"strings"

	"github.com/threadsync/core/internal/models"
)

// Trigger characters, one per mention type. Embedded in editable text as
// `<trigger><identifier> ` with a structural trailing space; never shown to
// the end user as-is.
const (
	TriggerUser   = '@'
	TriggerField  = '#'
	TriggerModel  = '$'
	TriggerAsset  = '^'
	TriggerRecord = '&'
)

var errUnknownMentionType = errors.New("unknown mention type")

var triggerByType = map[models.MentionType]rune{
	models.MentionUser:   TriggerUser,
	models.MentionField:  TriggerField,
	models.MentionModel:  TriggerModel,
	models.MentionAsset:  TriggerAsset,
	models.MentionRecord: TriggerRecord,
}

var typeByTrigger = map[rune]models.MentionType{
	TriggerUser:   models.MentionUser,
	TriggerField:  models.MentionField,
	TriggerModel:  models.MentionModel,
	TriggerAsset:  models.MentionAsset,
	TriggerRecord: models.MentionRecord,
}

// TypeForTrigger maps a trigger character to its mention type.
func TypeForTrigger(r rune) (models.MentionType, bool) {
	t, ok := typeByTrigger[r]
	return t, ok
}

// TriggerForType maps a mention type to its trigger character.
func TriggerForType(t models.MentionType) (rune, bool) {
	r, ok := triggerByType[t]
	return r, ok
}

// IsTrigger reports whether r is one of the five trigger characters.
func IsTrigger(r rune) bool {
	_, ok := typeByTrigger[r]
	return ok
}

// MatchesQuery reports whether any of the candidate's human-readable
// identifiers contains the query, case-insensitively. An empty query
// matches everything.
func MatchesQuery(query string, identifiers ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, id := range identifiers {
		if strings.Contains(strings.ToLower(id), q) {
			return true
		}
	}
	return false
}
