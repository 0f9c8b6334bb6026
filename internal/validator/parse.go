package validator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cruciblehq/crucible/pkg/models"
)

// syntaxErrorPattern matches the "<ErrorKind>: <message> (at|on) line <N>"
// shape syntax tools are expected to emit on parse failure.
var syntaxErrorPattern = regexp.MustCompile(`([A-Za-z]+Error):\s*(.+?)\s+(?:at|on)\s+line\s+(\d+)`)

// typeErrorPattern matches tsc's plain diagnostic lines:
// path(line,col): error TSxxxx: message
var typeErrorPattern = regexp.MustCompile(`^(.+)\((\d+),(\d+)\):\s+error\s+(TS\d+):\s+(.+)$`)

// parseSyntaxError extracts a line-located syntax issue from tool output.
// When the recognized pattern does not match, the raw message is kept with
// no line or column.
func parseSyntaxError(output string) models.Issue {
	output = strings.TrimSpace(output)

	if m := syntaxErrorPattern.FindStringSubmatch(output); m != nil {
		line, _ := strconv.Atoi(m[3])
		return models.Issue{
			Type:    models.IssueSyntax,
			Message: m[1] + ": " + m[2],
			Line:    line,
		}
	}

	return models.Issue{
		Type:    models.IssueSyntax,
		Message: output,
	}
}

// parseTypeErrors extracts issues from plain tsc diagnostic output. Lines
// that do not match the diagnostic shape are ignored; the caller keeps the
// raw output when nothing matches.
func parseTypeErrors(output string) []models.Issue {
	var issues []models.Issue

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		m := typeErrorPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		issues = append(issues, models.Issue{
			Type:    models.IssueTypeCheck,
			Message: m[5],
			Line:    lineNo,
			Column:  col,
			RuleID:  m[4],
		})
	}

	return issues
}
