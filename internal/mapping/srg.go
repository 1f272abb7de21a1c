package mapping

import "strings"

// SRGLoader parses the line-prefix dialect:
//
//	PK: old/pkg new/pkg
//	CL: a/B x/Y
//	FD: a/B/c x/Y/d                 (or owner/name desc new/name desc)
//	MD: a/B/c (I)V x/Y/d (I)V       (or owner/name desc new)
//
// Members may separate owner and name with '/' or '.'. Any malformed or
// unknown line fails the whole load.
type SRGLoader struct {
	*textLoader
}

// NewSRGLoader creates a loader over the text returned by open.
func NewSRGLoader(open Opener, opts ...Option) *SRGLoader {
	return &SRGLoader{textLoader: newTextLoader(DialectSRG, open, parseSRG, opts)}
}

func parseSRG(lines []line) (*Table, error) {
	table := NewTable()
	for _, l := range lines {
		fields := strings.Fields(l.text)
		tag, args := fields[0], fields[1:]

		switch tag {
		case "PK:":
			if len(args) != 2 {
				return nil, parseError(l, "PK expects 2 arguments, got %d", len(args))
			}
			table.AddPackage(srgPackage(args[0]), srgPackage(args[1]))
		case "CL:":
			if len(args) != 2 {
				return nil, parseError(l, "CL expects 2 arguments, got %d", len(args))
			}
			table.AddClass(args[0], args[1])
		case "FD:":
			if len(args) != 2 && len(args) != 4 {
				return nil, parseError(l, "FD expects 2 or 4 arguments, got %d", len(args))
			}
			owner, name, ok := splitMember(args[0])
			if !ok {
				return nil, parseError(l, "invalid field reference %q", args[0])
			}
			if len(args) == 2 {
				table.AddField(owner, name, "", simpleName(args[1]))
			} else {
				table.AddField(owner, name, args[1], simpleName(args[2]))
			}
		case "MD:":
			if len(args) != 3 && len(args) != 4 {
				return nil, parseError(l, "MD expects 3 or 4 arguments, got %d", len(args))
			}
			owner, name, ok := splitMember(args[0])
			if !ok {
				return nil, parseError(l, "invalid method reference %q", args[0])
			}
			table.AddMethod(owner, name, args[1], simpleName(args[2]))
		default:
			return nil, parseError(l, "unknown record %q", tag)
		}
	}
	return table, nil
}

// srgPackage maps the "." placeholder to the default package.
func srgPackage(name string) string {
	if name == "." {
		return ""
	}
	return name
}
