package mention

import (
	"regexp"
	"strings"

	"github.com/threadsync/core/internal/models"
)

// localePattern accepts short language tags: 2-3 letters with an optional
// region suffix ("it", "en-US", "pt-BR").
var localePattern = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z]{2,4})?$`)

// localeAllowList covers tags the pattern alone would miss or that are
// common enough to trust outright. API keys can coincidentally look like
// locale codes, so the suffix heuristic stays best-effort, not
// authoritative.
var localeAllowList = map[string]struct{}{
	"en": {}, "it": {}, "de": {}, "fr": {}, "es": {}, "pt": {},
	"nl": {}, "pl": {}, "ru": {}, "ja": {}, "zh": {}, "ko": {},
	"en-us": {}, "en-gb": {}, "pt-br": {}, "zh-cn": {}, "zh-tw": {},
}

// IsLocaleLike reports whether s plausibly is a locale code.
func IsLocaleLike(s string) bool {
	if s == "" {
		return false
	}
	if _, ok := localeAllowList[strings.ToLower(s)]; ok {
		return true
	}
	return localePattern.MatchString(s)
}

// SplitLocaleSuffix splits a wire identifier into an encoded path and a
// trailing locale, when the substring after the last underscore looks like
// a locale code. "sections::0::hero_title_it" -> ("sections::0::hero_title", "it").
func SplitLocaleSuffix(ident string) (rest, locale string, ok bool) {
	idx := strings.LastIndex(ident, "_")
	if idx <= 0 || idx == len(ident)-1 {
		return "", "", false
	}
	suffix := ident[idx+1:]
	if !IsLocaleLike(suffix) {
		return "", "", false
	}
	return ident[:idx], suffix, true
}

// WireIdentifier renders the canonical inline identifier for a mention:
// the part between the trigger character and the structural space.
func WireIdentifier(m models.Mention) string {
	switch m.Type {
	case models.MentionUser:
		if m.User != nil {
			return m.User.ID
		}
	case models.MentionModel:
		if m.Model != nil {
			return m.Model.ID
		}
	case models.MentionAsset:
		if m.Asset != nil {
			return m.Asset.ID
		}
	case models.MentionRecord:
		if m.Record != nil {
			return m.Record.ID
		}
	case models.MentionField:
		if m.Field != nil {
			encoded := models.EncodeFieldPath(m.Field.FieldPath)
			if m.Field.Locale != "" && !pathEmbedsLocale(encoded, m.Field.Locale) {
				encoded += "_" + m.Field.Locale
			}
			return encoded
		}
	}
	return ""
}

// pathEmbedsLocale reports whether the encoded path already carries the
// locale as one of its components (nested localized block fields do).
func pathEmbedsLocale(encoded, locale string) bool {
	for _, part := range strings.Split(encoded, models.EncodedPathJoin) {
		if strings.EqualFold(part, locale) {
			return true
		}
	}
	return false
}

// legacyUnderscoreIdentifier renders the historical underscore-joined wire
// form of a field mention. The underscore scheme cannot be reversed
// losslessly (API keys contain underscores and digits), so it is only used
// to recognize legacy identifiers against known mentions, never to produce
// new ones.
func legacyUnderscoreIdentifier(f models.FieldMention) string {
	encoded := strings.ReplaceAll(f.FieldPath, models.FieldPathSeparator, "_")
	if f.Locale != "" && !strings.Contains("_"+encoded+"_", "_"+f.Locale+"_") {
		encoded += "_" + f.Locale
	}
	return encoded
}
