package descriptor

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	identifierCode
	openBraceCode
	closeBraceCode
	colonCode
	semicolonCode
	guidCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken = parsly.NewToken(identifierCode, "Identifier", newIdentifierMatcher())
	openBraceToken  = parsly.NewToken(openBraceCode, "{", matcher.NewByte('{'))
	closeBraceToken = parsly.NewToken(closeBraceCode, "}", matcher.NewByte('}'))
	colonToken      = parsly.NewToken(colonCode, ":", matcher.NewByte(':'))
	semicolonToken  = parsly.NewToken(semicolonCode, ";", matcher.NewByte(';'))
	guidToken       = parsly.NewToken(guidCode, "Guid", newGuidMatcher())
)

func newIdentifierMatcher() parsly.Matcher {
	return &identifierMatcher{}
}

func newGuidMatcher() parsly.Matcher {
	return &guidMatcher{}
}

// identifierMatcher matches interface and method names
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' {
			matched++
			continue
		}
		break
	}
	return matched
}

// guidMatcher matches the canonical textual id form: hex digits and dashes
type guidMatcher struct{}

func (m *guidMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	matched := 0
	for i := pos; i < size; i++ {
		if isHex(input[i]) || input[i] == '-' {
			matched++
			continue
		}
		break
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
