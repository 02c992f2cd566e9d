package async

import (
	"fmt"
	"strconv"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// DefaultBudget bounds how many steps one drive-loop invocation may take when
// no class or explicit budget is supplied.
const DefaultBudget = 64

// Class selects a poll-budget profile for a spawn.
type Class string

const (
	ClassInteractive Class = "interactive"
	ClassDefault     Class = "default"
	ClassBatch       Class = "batch"
)

// Budgets holds the per-class poll budgets.
type Budgets struct {
	Interactive uint32 `yaml:"interactive" json:"interactive"`
	Default     uint32 `yaml:"default" json:"default"`
	Batch       uint32 `yaml:"batch" json:"batch"`
}

// DefaultBudgets returns the standard profile set.
func DefaultBudgets() Budgets {
	return Budgets{Interactive: 16, Default: DefaultBudget, Batch: 256}
}

// For returns the budget of a class; an unknown class maps to Default.
func (b Budgets) For(class Class) uint32 {
	switch class {
	case ClassInteractive:
		return b.Interactive
	case ClassBatch:
		return b.Batch
	}
	return b.Default
}

// Validate checks that every budget is positive.
func (b Budgets) Validate() error {
	if b.Interactive == 0 || b.Default == 0 || b.Batch == 0 {
		return fmt.Errorf("budget profile must be positive: %+v", b)
	}
	return nil
}

// Budget token codes
const (
	budgetWhitespaceCode = iota
	budgetClassCode
	budgetColonCode
	budgetNumberCode
	budgetCommaCode
)

var (
	budgetWhitespaceToken = parsly.NewToken(budgetWhitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	budgetClassToken      = parsly.NewToken(budgetClassCode, "Class", &budgetClassMatcher{})
	budgetColonToken      = parsly.NewToken(budgetColonCode, ":", matcher.NewByte(':'))
	budgetNumberToken     = parsly.NewToken(budgetNumberCode, "Number", &budgetNumberMatcher{})
	budgetCommaToken      = parsly.NewToken(budgetCommaCode, ",", matcher.NewByte(','))
)

type budgetClassMatcher struct{}

func (m *budgetClassMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if input[i] >= 'a' && input[i] <= 'z' {
			matched++
			continue
		}
		break
	}
	return matched
}

type budgetNumberMatcher struct{}

func (m *budgetNumberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if input[i] >= '0' && input[i] <= '9' {
			matched++
			continue
		}
		break
	}
	return matched
}

// ParseBudgets parses a profile override in the format
// "interactive:16,default:64,batch:256". Omitted classes keep their standard
// value; an unknown class name is an error.
func ParseBudgets(input string) (Budgets, error) {
	budgets := DefaultBudgets()
	if input == "" {
		return budgets, nil
	}
	cursor := parsly.NewCursor("", []byte(input), 0)
	for {
		matched := cursor.MatchAfterOptional(budgetWhitespaceToken, budgetClassToken)
		if matched.Code != budgetClassToken.Code {
			return budgets, cursor.NewError(budgetClassToken)
		}
		class := matched.Text(cursor)

		matched = cursor.MatchAfterOptional(budgetWhitespaceToken, budgetColonToken)
		if matched.Code != budgetColonToken.Code {
			return budgets, cursor.NewError(budgetColonToken)
		}
		matched = cursor.MatchAfterOptional(budgetWhitespaceToken, budgetNumberToken)
		if matched.Code != budgetNumberToken.Code {
			return budgets, cursor.NewError(budgetNumberToken)
		}
		value, err := strconv.ParseUint(matched.Text(cursor), 10, 32)
		if err != nil {
			return budgets, err
		}

		switch Class(class) {
		case ClassInteractive:
			budgets.Interactive = uint32(value)
		case ClassDefault:
			budgets.Default = uint32(value)
		case ClassBatch:
			budgets.Batch = uint32(value)
		default:
			return budgets, fmt.Errorf("unknown budget class: %v", class)
		}

		matched = cursor.MatchAfterOptional(budgetWhitespaceToken, budgetCommaToken)
		if matched.Code != budgetCommaToken.Code {
			if cursor.Pos < cursor.InputSize {
				return budgets, cursor.NewError(budgetCommaToken)
			}
			return budgets, budgets.Validate()
		}
	}
}
