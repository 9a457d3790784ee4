// Package decode turns raw JSON bytes into the engine's native value
// representation: nil, bool, int64, float64, string, []any, and
// *object.Object for objects, with insertion order preserved and
// integers kept distinct from floats per RFC 9535's data model.
package decode

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/rfc9535/jsonpath/internal/object"
)

// Value decodes data into the engine's native JSON value representation.
func Value(data []byte) (any, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.ReadToken(); err == nil {
		return nil, fmt.Errorf("decode: unexpected trailing data")
	}
	return v, nil
}

func decodeValue(dec *jsontext.Decoder) (any, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tok.Kind() {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	case '"':
		return tok.String(), nil
	case '0':
		return decodeNumber(tok)
	case 't':
		return true, nil
	case 'f':
		return false, nil
	case 'n':
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected token kind %q", tok.Kind())
	}
}

func decodeObject(dec *jsontext.Decoder) (any, error) {
	obj := object.New()
	for dec.PeekKind() != '}' {
		keyTok, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		key := keyTok.String()
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		object.Set(obj, key, val)
	}
	if _, err := dec.ReadToken(); err != nil { // consume '}'
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *jsontext.Decoder) (any, error) {
	arr := []any{}
	for dec.PeekKind() != ']' {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.ReadToken(); err != nil { // consume ']'
		return nil, err
	}
	return arr, nil
}

// decodeNumber classifies a number token as int64 or float64 using the
// same rule the lexer applies to query literals (internal/lexer): the
// literal is an integer unless its text contains a fraction or a negative
// exponent. This keeps document numbers and query literal numbers
// comparable under the filter runtime's equality/ordering rules.
func decodeNumber(tok jsontext.Token) (any, error) {
	text := tok.String()
	if isIntegerLiteral(text) {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
		if i, err := strconv.ParseInt(stripPositiveExponent(text), 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return f, nil
}

func isIntegerLiteral(text string) bool {
	if strings.ContainsAny(text, ".") {
		return false
	}
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		rest := text[i+1:]
		return !strings.HasPrefix(rest, "-")
	}
	return true
}

// stripPositiveExponent expands "1e2"-style integer literals with a
// non-negative exponent into plain digit form so strconv.ParseInt can
// parse them, mirroring the parser's own numeric-literal normalisation.
func stripPositiveExponent(text string) string {
	i := strings.IndexAny(text, "eE")
	if i < 0 {
		return text
	}
	mantissa := text[:i]
	exp := text[i+1:]
	exp = strings.TrimPrefix(exp, "+")
	n, err := strconv.Atoi(exp)
	if err != nil || n < 0 {
		return text
	}
	neg := strings.HasPrefix(mantissa, "-")
	if neg {
		mantissa = mantissa[1:]
	}
	if n > 0 {
		mantissa += strings.Repeat("0", n)
	}
	if neg {
		mantissa = "-" + mantissa
	}
	return mantissa
}
