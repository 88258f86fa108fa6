package csvparser

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/ginjaninja78/sevkiyat-converter/internal/config"
	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
)

// Strategy is one way of reading a file: an encoding paired with a delimiter.
type Strategy struct {
	Encoding  string
	Delimiter rune
}

// Name identifies the strategy in logs, e.g. "windows-1254/;".
func (s Strategy) Name() string {
	d := string(s.Delimiter)
	if s.Delimiter == '\t' {
		d = "tab"
	}
	return fmt.Sprintf("%s/%s", s.Encoding, d)
}

// BuildStrategies expands encodings × delimiters, encoding-major, so every
// delimiter is tried with the preferred encoding before falling back.
func BuildStrategies(encodings, delimiters []string) ([]Strategy, error) {
	var out []Strategy
	for _, enc := range encodings {
		name := config.NormalizeEncodingName(enc)
		if !config.SupportedEncoding(name) {
			return nil, errors.Newf("unsupported encoding %q", enc)
		}
		for _, d := range delimiters {
			r, err := config.DelimiterRune(d)
			if err != nil {
				return nil, err
			}
			out = append(out, Strategy{Encoding: name, Delimiter: r})
		}
	}
	return out, nil
}

// decode converts raw bytes to text. Text containing NUL bytes is rejected:
// it is either binary or a UTF-16 export, neither of which the single-byte
// fallbacks can read.
func (s Strategy) decode(raw []byte) (string, error) {
	var out []byte
	switch s.Encoding {
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", errors.New("not valid UTF-8")
		}
		b, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
		if err != nil {
			return "", errors.Wrap(err, "decode utf-8")
		}
		out = b
	case "windows-1254":
		b, err := decodeWith(charmap.Windows1254, raw)
		if err != nil {
			return "", err
		}
		out = b
	case "iso-8859-9":
		b, err := decodeWith(charmap.ISO8859_9, raw)
		if err != nil {
			return "", err
		}
		out = b
	default:
		return "", errors.Newf("unsupported encoding %q", s.Encoding)
	}

	if bytes.IndexByte(out, 0) >= 0 {
		return "", errors.New("unreadable content (NUL bytes)")
	}
	return string(out), nil
}

func decodeWith(enc encoding.Encoding, raw []byte) ([]byte, error) {
	b, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %v", enc)
	}
	return b, nil
}
