package vm

import "testing"

func TestCheckBracketsBalanced(t *testing.T) {
	for _, src := range []string{helloWorldFlat, helloWorldLooped, bubbleSort, "", "[[]][]"} {
		if issues := CheckBrackets(src); len(issues) != 0 {
			t.Errorf("CheckBrackets(%q) = %v, want none", src, issues)
		}
	}
}

func TestCheckBracketsPositions(t *testing.T) {
	src := "+]\n  [[-]"
	issues := CheckBrackets(src)
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %v", len(issues), issues)
	}

	closeIssue := issues[0]
	if closeIssue.Symbol != ']' || closeIssue.Line != 0 || closeIssue.Column != 1 || closeIssue.Offset != 1 {
		t.Errorf("first issue = %+v, want ] at 0:1", closeIssue)
	}

	openIssue := issues[1]
	if openIssue.Symbol != '[' || openIssue.Line != 1 || openIssue.Column != 2 || openIssue.Offset != 5 {
		t.Errorf("second issue = %+v, want [ at 1:2", openIssue)
	}
}
