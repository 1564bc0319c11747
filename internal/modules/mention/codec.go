package mention

import (
	"sort"
	"strings"
	"unicode"

	"github.com/threadsync/core/internal/models"
)

// EncodeResult carries the editable text and the mention map needed to
// decode it back.
type EncodeResult struct {
	Text     string
	Mentions models.MentionMap
}

// Encode renders a segment sequence as editable plain text. Each mention
// becomes `<trigger><identifier> `; the trailing space is structural and is
// stripped again on decode. Every mention is cached in the returned map
// under its canonical key.
func Encode(segments []models.CommentSegment) EncodeResult {
	var b strings.Builder
	mm := models.MentionMap{}

	for _, s := range segments {
		switch s.Type {
		case models.SegmentText:
			b.WriteString(s.Content)
		case models.SegmentMention:
			if s.Mention == nil {
				continue
			}
			trigger, ok := TriggerForType(s.Mention.Type)
			if !ok {
				continue
			}
			ident := WireIdentifier(*s.Mention)
			if ident == "" {
				continue
			}
			b.WriteRune(trigger)
			b.WriteString(ident)
			b.WriteByte(' ')
			mm.Put(*s.Mention)
		}
	}

	return EncodeResult{Text: b.String(), Mentions: mm}
}

// Decode scans editable text left to right and resolves trigger syntax
// against the mention map. Identifiers the map does not know (pasted text,
// a stray caret or dollar sign) stay literal text instead of being dropped.
// Empty input decodes to an empty segment list, never a single empty text
// segment.
func Decode(text string, mentions models.MentionMap) []models.CommentSegment {
	segments := []models.CommentSegment{}
	if text == "" {
		return segments
	}

	runes := []rune(text)
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			segments = append(segments, models.TextSegment(buf.String()))
			buf.Reset()
		}
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		mt, isTrigger := TypeForTrigger(r)
		if !isTrigger {
			buf.WriteRune(r)
			i++
			continue
		}

		j := i + 1
		for j < len(runes) && !isIdentBreak(runes[j]) {
			j++
		}
		ident := string(runes[i+1 : j])
		if ident != "" {
			if m, ok := resolve(mt, ident, mentions); ok {
				flush()
				segments = append(segments, models.MentionSegment(m))
				i = j
				// structural space after the identifier is not content
				if i < len(runes) && runes[i] == ' ' {
					i++
				}
				continue
			}
		}

		// map miss: keep the matched substring verbatim
		buf.WriteString(string(runes[i:j]))
		i = j
	}
	flush()

	return segments
}

func isIdentBreak(r rune) bool {
	return unicode.IsSpace(r) || IsTrigger(r)
}

// resolve looks up a scanned identifier in the mention map using the
// matching type's key scheme.
func resolve(mt models.MentionType, ident string, mentions models.MentionMap) (models.Mention, bool) {
	if len(mentions) == 0 {
		return models.Mention{}, false
	}

	switch mt {
	case models.MentionUser:
		return lookup(mentions, "user:"+ident)
	case models.MentionModel:
		return lookup(mentions, "model:"+ident)
	case models.MentionAsset:
		return lookup(mentions, "asset:"+ident)
	case models.MentionRecord:
		return lookup(mentions, "record:"+ident)
	case models.MentionField:
		return resolveField(ident, mentions)
	}
	return models.Mention{}, false
}

func lookup(mentions models.MentionMap, key string) (models.Mention, bool) {
	m, ok := mentions[key]
	return m, ok
}

// resolveField tolerates both historical field identifier encodings.
// Attempts, in order: exact key match, locale-suffix split, and a
// best-effort scan matching the canonical and legacy underscore-joined wire
// forms of every known field mention.
func resolveField(ident string, mentions models.MentionMap) (models.Mention, bool) {
	if m, ok := lookup(mentions, "field:"+ident); ok {
		return m, true
	}

	if rest, locale, ok := SplitLocaleSuffix(ident); ok {
		if m, found := lookup(mentions, "field:"+rest+models.EncodedPathJoin+locale); found {
			return m, true
		}
		if m, found := lookup(mentions, "field:"+rest); found {
			return m, true
		}
	}

	// deterministic scan so ambiguous legacy identifiers resolve stably
	keys := make([]string, 0, len(mentions))
	for k := range mentions {
		if strings.HasPrefix(k, "field:") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		m := mentions[k]
		if m.Field == nil {
			continue
		}
		if WireIdentifier(m) == ident || legacyUnderscoreIdentifier(*m.Field) == ident {
			return m, true
		}
	}
	return models.Mention{}, false
}
