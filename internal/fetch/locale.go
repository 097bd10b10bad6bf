package fetch

import (
	"regexp"

	"golang.org/x/text/language"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

var compactLocale = regexp.MustCompile(`^([a-zA-Z]{2})([a-zA-Z]{2})$`)

// ParseLocale normalizes a locale such as en-US, en_US or enUS to the
// language+region form used by the export endpoint (enUS). An empty string
// stays empty.
func ParseLocale(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	tagText := compactLocale.ReplaceAllString(s, "$1-$2")
	tag, err := language.Parse(tagText)
	if err != nil {
		return "", wdberrors.NewConfigError("locale", s, err.Error())
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf != language.Exact {
		return "", wdberrors.NewConfigError("locale", s, "a region is required, e.g. enUS")
	}
	return base.String() + region.String(), nil
}
