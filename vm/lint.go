package vm

// BracketIssue describes an unmatched [ or ] in raw source.
// Line and Column are zero-based byte positions.
type BracketIssue struct {
	Symbol  byte
	Offset  int
	Line    int
	Column  int
	Message string
}

// CheckBrackets reports every unmatched bracket in src. Execution never
// requires this check; it exists for tooling that wants to flag a program
// before running it.
func CheckBrackets(src string) []BracketIssue {
	type mark struct{ offset, line, col int }
	var (
		open   []mark
		issues []BracketIssue
		line   int
		col    int
	)
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\n':
			line++
			col = 0
			continue
		case '[':
			open = append(open, mark{i, line, col})
		case ']':
			if len(open) == 0 {
				issues = append(issues, BracketIssue{
					Symbol:  ']',
					Offset:  i,
					Line:    line,
					Column:  col,
					Message: "] has no matching [",
				})
			} else {
				open = open[:len(open)-1]
			}
		}
		col++
	}
	for _, o := range open {
		issues = append(issues, BracketIssue{
			Symbol:  '[',
			Offset:  o.offset,
			Line:    o.line,
			Column:  o.col,
			Message: "[ has no matching ]",
		})
	}
	return issues
}
