package metrics

import (
	"path/filepath"
	"regexp"
	"strings"
)

// commentStyle selects the comment-pattern family used for a language.
type commentStyle int

const (
	styleC commentStyle = iota
	styleHash
)

// language groups the heuristic patterns for one language family. The
// patterns are deliberately regex-based approximations, not a parser.
type language struct {
	name            string
	comments        commentStyle
	functionDecls   []*regexp.Regexp
	namedCallDecl   *regexp.Regexp
	declKeywords    map[string]bool
	controlKeywords *regexp.Regexp
	branchKeywords  *regexp.Regexp
	countOperators  bool
}

var (
	jsFunctionDecl = regexp.MustCompile(`\bfunction\b\s*\*?\s*[\w$]*\s*\(`)
	jsArrowDecl    = regexp.MustCompile(`=>`)
	// Method shorthand and named declarations: the captured identifier is
	// filtered against control keywords since RE2 has no lookahead.
	jsNamedDecl = regexp.MustCompile(`(?m)^\s*(?:async\s+)?(?:static\s+)?([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`)

	goFunctionDecl = regexp.MustCompile(`(?m)^func\b`)

	pyFunctionDecl = regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+\w+`)

	jsControl = regexp.MustCompile(`\b(if|for|while|switch|case|try|catch)\b`)
	jsBranch  = regexp.MustCompile(`\b(if|for|while|case|catch)\b`)

	goControl = regexp.MustCompile(`\b(if|for|switch|case|select)\b`)
	goBranch  = regexp.MustCompile(`\b(if|for|case)\b`)

	pyControl = regexp.MustCompile(`\b(if|elif|for|while|try|except|with)\b`)
	pyBranch  = regexp.MustCompile(`\b(if|elif|for|while|except|and|or)\b`)
)

var jsKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"catch": true, "return": true, "do": true, "else": true,
}

var jsLang = &language{
	name:            "javascript",
	comments:        styleC,
	functionDecls:   []*regexp.Regexp{jsFunctionDecl, jsArrowDecl},
	namedCallDecl:   jsNamedDecl,
	declKeywords:    jsKeywords,
	controlKeywords: jsControl,
	branchKeywords:  jsBranch,
	countOperators:  true,
}

var goLang = &language{
	name:            "go",
	comments:        styleC,
	functionDecls:   []*regexp.Regexp{goFunctionDecl},
	controlKeywords: goControl,
	branchKeywords:  goBranch,
	countOperators:  true,
}

var pyLang = &language{
	name:            "python",
	comments:        styleHash,
	functionDecls:   []*regexp.Regexp{pyFunctionDecl},
	controlKeywords: pyControl,
	branchKeywords:  pyBranch,
}

// languagesByExt maps recognized source extensions to their family. Files
// with other extensions get size and line counts only.
var languagesByExt = map[string]*language{
	".js":  jsLang,
	".jsx": jsLang,
	".mjs": jsLang,
	".cjs": jsLang,
	".ts":  jsLang,
	".tsx": jsLang,
	".go":  goLang,
	".py":  pyLang,
}

// languageFor returns the language family for a path, nil when unrecognized.
func languageFor(path string) *language {
	return languagesByExt[strings.ToLower(filepath.Ext(path))]
}

var (
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentPattern  = regexp.MustCompile(`(?m)^\s*//.*$`)
	hashCommentPattern  = regexp.MustCompile(`(?m)^\s*#.*$`)

	stringPattern = regexp.MustCompile("`[^`]*`|\"(?:\\\\.|[^\"\\\\])*\"|'(?:\\\\.|[^'\\\\])*'")
	tokenPattern  = regexp.MustCompile(`[A-Za-z0-9_]+|[^\sA-Za-z0-9_]`)

	logicalAndPattern = regexp.MustCompile(`&&`)
	logicalOrPattern  = regexp.MustCompile(`\|\|`)
	ternaryPattern    = regexp.MustCompile(`\?[^.?:]`)
)

// countCommentLines counts all lines spanned by matched comments, block
// comments included.
func (l *language) countCommentLines(content string) int {
	count := 0
	switch l.comments {
	case styleC:
		for _, m := range blockCommentPattern.FindAllString(content, -1) {
			count += strings.Count(m, "\n") + 1
		}
		count += len(lineCommentPattern.FindAllString(content, -1))
	case styleHash:
		count += len(hashCommentPattern.FindAllString(content, -1))
	}
	return count
}

// countFunctions applies the family's declaration patterns. Intentionally
// approximate: nested arrows and unusual declaration forms may over- or
// under-count.
func (l *language) countFunctions(content string) int {
	count := 0
	for _, p := range l.functionDecls {
		count += len(p.FindAllString(content, -1))
	}
	if l.namedCallDecl != nil {
		for _, m := range l.namedCallDecl.FindAllStringSubmatch(content, -1) {
			if !l.declKeywords[m[1]] {
				count++
			}
		}
	}
	return count
}

// countControlStructures counts control-structure keywords.
func (l *language) countControlStructures(content string) int {
	return len(l.controlKeywords.FindAllString(content, -1))
}

// countBranchTokens counts branch-introducing tokens for the cyclomatic
// proxy: branch keywords plus logical operators and ternaries where the
// family has them.
func (l *language) countBranchTokens(content string) int {
	count := len(l.branchKeywords.FindAllString(content, -1))
	if l.countOperators {
		count += len(logicalAndPattern.FindAllString(content, -1))
		count += len(logicalOrPattern.FindAllString(content, -1))
		count += len(ternaryPattern.FindAllString(content, -1))
	}
	return count
}

// stripForTokens removes comments and string literals ahead of token
// counting.
func (l *language) stripForTokens(content string) string {
	switch l.comments {
	case styleC:
		content = blockCommentPattern.ReplaceAllString(content, " ")
		content = lineCommentPattern.ReplaceAllString(content, " ")
	case styleHash:
		content = hashCommentPattern.ReplaceAllString(content, " ")
	}
	return stringPattern.ReplaceAllString(content, " ")
}

// countTokens is a rough lexical size proxy, not a real tokenizer.
func (l *language) countTokens(content string) int {
	return len(tokenPattern.FindAllString(l.stripForTokens(content), -1))
}

// maxNestingDepth tracks nesting via a simple bracket-balance scan across
// braces, parentheses, and brackets.
func maxNestingDepth(content string) int {
	depth, deepest := 0, 0
	for _, r := range content {
		switch r {
		case '{', '(', '[':
			depth++
			if depth > deepest {
				deepest = depth
			}
		case '}', ')', ']':
			if depth > 0 {
				depth--
			}
		}
	}
	return deepest
}
