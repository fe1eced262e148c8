package match

import (
	"strings"
	"unicode"
)

// NormalizeName normalizes a field name for fuzzy matching.
// The normalization pipeline:
// 1. Split camelCase and acronyms into tokens.
// 2. Drop separators (_, -, ., spaces) and other punctuation.
// 3. Case-fold to lower and join.
//
// "userName", "user_name", "User Name" and "USER-NAME" all normalize to
// "username".
func NormalizeName(s string) string {
	return strings.Join(Tokenize(s), "")
}

// Tokenize splits a field name into lowercase word tokens.
// Examples:
//   - "meta_source_kind" -> ["meta", "source", "kind"]
//   - "createdAt" -> ["created", "at"]
//   - "HTTPStatus" -> ["http", "status"]
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

// startsToken reports whether a camelCase boundary falls before runes[i].
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]

	if !unicode.IsUpper(r) {
		return false
	}

	// "orderId": lower -> upper
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	// "XMLParser": the last capital of an acronym starts the next word
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
