package descriptor

import (
	"github.com/google/uuid"
	"github.com/viant/parsly"

	"github.com/viant/kom/object"
)

// Interface is one parsed interface descriptor. Parent names the interface
// whose dispatch table is embedded as field 0 of this interface's table; an
// empty Parent means the base interface.
type Interface struct {
	Name    string
	IID     object.IID
	Parent  string
	Methods []string
}

// Parse parses an interface descriptor in the format:
//
//	IName {xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx} : IParent { method; method }
//
// The parent clause is optional; an empty method list is allowed.
func Parse(input []byte) (*Interface, error) {
	cursor := parsly.NewCursor("", input, 0)
	descriptor := &Interface{}

	// Match the interface name
	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	descriptor.Name = matched.Text(cursor)

	// Match the interface id between braces
	matched = cursor.MatchAfterOptional(whitespaceToken, openBraceToken)
	if matched.Code != openBraceToken.Code {
		return nil, cursor.NewError(openBraceToken)
	}
	matched = cursor.MatchAfterOptional(whitespaceToken, guidToken)
	if matched.Code != guidToken.Code {
		return nil, cursor.NewError(guidToken)
	}
	iid, err := uuid.Parse(matched.Text(cursor))
	if err != nil {
		return nil, err
	}
	descriptor.IID = iid
	matched = cursor.MatchAfterOptional(whitespaceToken, closeBraceToken)
	if matched.Code != closeBraceToken.Code {
		return nil, cursor.NewError(closeBraceToken)
	}

	// Match the optional parent clause
	matched = cursor.MatchAfterOptional(whitespaceToken, colonToken, openBraceToken)
	switch matched.Code {
	case colonToken.Code:
		matched = cursor.MatchAfterOptional(whitespaceToken, identifierToken)
		if matched.Code != identifierToken.Code {
			return nil, cursor.NewError(identifierToken)
		}
		descriptor.Parent = matched.Text(cursor)
		matched = cursor.MatchAfterOptional(whitespaceToken, openBraceToken)
		if matched.Code != openBraceToken.Code {
			return nil, cursor.NewError(openBraceToken)
		}
	case openBraceToken.Code:
	default:
		return nil, cursor.NewError(openBraceToken)
	}

	// Match the method list
	for {
		matched = cursor.MatchAfterOptional(whitespaceToken, identifierToken, closeBraceToken)
		switch matched.Code {
		case closeBraceToken.Code:
			return descriptor, nil
		case identifierToken.Code:
		default:
			return nil, cursor.NewError(closeBraceToken)
		}
		descriptor.Methods = append(descriptor.Methods, matched.Text(cursor))

		matched = cursor.MatchAfterOptional(whitespaceToken, semicolonToken, closeBraceToken)
		switch matched.Code {
		case semicolonToken.Code:
		case closeBraceToken.Code:
			return descriptor, nil
		default:
			return nil, cursor.NewError(semicolonToken)
		}
	}
}
