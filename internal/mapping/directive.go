package mapping

import "strings"

// DirectiveLoader parses the dot-command dialect:
//
//	.class_map a/B x/Y
//	.field_map a/B/c d
//	.method_map a/B/c (I)V d
//
// Other directives are skipped. Only a wrong argument count on one of the
// three commands above fails the load.
type DirectiveLoader struct {
	*textLoader
}

// NewDirectiveLoader creates a loader over the text returned by open.
func NewDirectiveLoader(open Opener, opts ...Option) *DirectiveLoader {
	return &DirectiveLoader{textLoader: newTextLoader(DialectDirective, open, parseDirectives, opts)}
}

func parseDirectives(lines []line) (*Table, error) {
	table := NewTable()
	for _, l := range lines {
		fields := strings.Fields(l.text)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case ".class_map":
			if len(args) != 2 {
				return nil, parseError(l, ".class_map expects 2 arguments, got %d", len(args))
			}
			table.AddClass(args[0], args[1])
		case ".field_map":
			if len(args) != 2 {
				return nil, parseError(l, ".field_map expects 2 arguments, got %d", len(args))
			}
			owner, name, ok := splitMember(args[0])
			if !ok {
				return nil, parseError(l, "invalid field reference %q", args[0])
			}
			table.AddField(owner, name, "", args[1])
		case ".method_map":
			if len(args) != 3 {
				return nil, parseError(l, ".method_map expects 3 arguments, got %d", len(args))
			}
			owner, name, ok := splitMember(args[0])
			if !ok {
				return nil, parseError(l, "invalid method reference %q", args[0])
			}
			table.AddMethod(owner, name, args[1], args[2])
		}
	}
	return table, nil
}
