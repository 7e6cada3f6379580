// scanner.go implements the single-pass scanner for {=name::method(params)|ctx=} syntax.
package macro

import (
	"regexp"
	"strings"
)

// tokenPattern matches one invocation. The parameter group is greedy, so it
// extends to the last ")" that is still followed by an optional "|selector"
// and "=}". RE2 guarantees linear-time matching; "." does not match newlines,
// so a parameter list never spans lines.
var tokenPattern = regexp.MustCompile(
	`\{=(?P<name>[^:=(|]+)(?:::(?P<method>[^(=|]+))?(?:\((?P<parameters>.*)\))?(?:\|(?P<context>[^(=]+))?=\}`,
)

var (
	nameGroup       = tokenPattern.SubexpIndex("name")
	methodGroup     = tokenPattern.SubexpIndex("method")
	parametersGroup = tokenPattern.SubexpIndex("parameters")
	contextGroup    = tokenPattern.SubexpIndex("context")
)

// ParameterSeparator splits a raw parameter list. It cannot be escaped.
const ParameterSeparator = ", "

// Scan returns every non-overlapping token in text, left to right.
// Malformed invocations are not matched and produce no token.
func Scan(text string) []Token {
	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, tokenFromMatch(text, m))
	}
	return tokens
}

// Count returns the number of tokens a pass over text would match.
func Count(text string) int {
	return len(tokenPattern.FindAllStringIndex(text, -1))
}

// SplitParameters splits a raw parameter list on ParameterSeparator and trims
// each piece. An empty list yields no parameters.
func SplitParameters(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ParameterSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// replaceTokens runs one scan pass over text, replacing each token with the
// value returned by fn. It stops at the first error fn returns. The returned
// count is the number of tokens matched in the pass.
func replaceTokens(text string, fn func(Token) (string, error)) (string, int, error) {
	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m[0]])
		value, err := fn(tokenFromMatch(text, m))
		if err != nil {
			return "", len(matches), err
		}
		sb.WriteString(value)
		last = m[1]
	}
	sb.WriteString(text[last:])

	return sb.String(), len(matches), nil
}

// tokenFromMatch builds a Token from one FindAllStringSubmatchIndex entry.
func tokenFromMatch(text string, m []int) Token {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}

	method := group(methodGroup)
	if method == "" {
		method = DefaultMethod
	}

	return Token{
		Raw:        text[m[0]:m[1]],
		Name:       group(nameGroup),
		Method:     method,
		Parameters: group(parametersGroup),
		Context:    group(contextGroup),
		Position:   m[0],
	}
}
