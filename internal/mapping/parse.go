package mapping

import (
	"bufio"
	"bytes"
	"strings"
	"unicode/utf8"

	apperrors "github.com/classkit/pkg/errors"
)

// ErrParse reports a line that violates its dialect.
var ErrParse = apperrors.ErrParseError

func parseError(l line, format string, args ...any) error {
	return apperrors.Newf(apperrors.CodeParseError, "line %d: "+format, append([]any{l.num}, args...)...)
}

// splitLines decodes data as UTF-8 and returns its trimmed non-blank lines
// with their 1-based line numbers.
func splitLines(data []byte) ([]line, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	if !utf8.Valid(data) {
		return nil, apperrors.New(apperrors.CodeParseError, "mapping text is not valid UTF-8")
	}

	var lines []line
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	num := 0
	for sc.Scan() {
		num++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		lines = append(lines, line{num: num, text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to split mapping text", err)
	}
	return lines, nil
}

// splitMember splits "a/B/c" or "a/B.c" into owner "a/B" and member "c".
func splitMember(s string) (owner, name string, ok bool) {
	i := strings.LastIndexAny(s, "/.")
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// simpleName returns the part of s after its last separator.
func simpleName(s string) string {
	if i := strings.LastIndexAny(s, "/."); i >= 0 {
		return s[i+1:]
	}
	return s
}
