// Package textutil provides text helpers shared by the search and query layers.
package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery trims surrounding whitespace and converts s to Unicode NFC.
// Messages typed on Apple devices are stored composed, so a decomposed
// "e" + U+0301 in a query would otherwise never match a stored "é".
func NormalizeQuery(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return norm.NFC.String(s)
}

// CleanMessageText returns message text as valid UTF-8.
// Text written by the Messages app is always UTF-8, but SMS history migrated
// from older phones occasionally carries Latin-1 or Shift_JIS bytes.
func CleanMessageText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	if len(raw) >= 16 {
		if res, err := chardet.NewTextDetector().DetectBest(raw); err == nil && res.Confidence >= 50 {
			if enc := encodingByName(res.Charset); enc != nil {
				if decoded, err := enc.NewDecoder().Bytes(raw); err == nil && utf8.Valid(decoded) {
					return string(decoded)
				}
			}
		}
	}

	for _, enc := range []encoding.Encoding{charmap.Windows1252, japanese.ShiftJIS} {
		if decoded, err := enc.NewDecoder().Bytes(raw); err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	return strings.ToValidUTF8(string(raw), "�")
}

func encodingByName(name string) encoding.Encoding {
	switch strings.ToLower(name) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1
	case "shift_jis", "sjis":
		return japanese.ShiftJIS
	case "euc-jp":
		return japanese.EUCJP
	default:
		return nil
	}
}
