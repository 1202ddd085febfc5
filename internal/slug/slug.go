// Package slug derives URL and id safe identifiers from heading text.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separator joins the words of a slug.
const Separator = "-"

var replacer = strings.NewReplacer(
	"&", " and ",
	"ä", "ae", "Ä", "Ae",
	"ö", "oe", "Ö", "Oe",
	"ü", "ue", "Ü", "Ue",
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"ø", "o", "Ø", "O",
	"œ", "oe", "Œ", "OE",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
)

// Applied in order. Each pair splits a camel case boundary with a space.
var decamelizers = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z]{2,})(\d+)`),
	regexp.MustCompile(`([a-z\d]+)([A-Z]{2,})`),
	regexp.MustCompile(`([a-z\d])([A-Z])`),
	regexp.MustCompile(`([A-Z]+)([A-Z][a-rt-z\d]+)`),
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s, transliterates common Latin letters to ASCII, splits
// camel case words and joins the remaining alphanumeric runs with Separator.
//
//	Slugify("Hello World")   // "hello-world"
//	Slugify("fooBar & Bär")  // "foo-bar-and-baer"
func Slugify(s string) string {
	s = replacer.Replace(s)
	for _, re := range decamelizers {
		s = re.ReplaceAllString(s, "$1 $2")
	}
	s = stripMarks(s)
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, Separator)
	return strings.Trim(s, Separator)
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
