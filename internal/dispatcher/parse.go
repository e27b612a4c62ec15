package dispatcher

import "strings"

// Line is a parsed command line.
type Line struct {
	Name string
	Args []string
}

// Empty reports whether the line held no command.
func (l Line) Empty() bool {
	return l.Name == ""
}

// HasArgs reports whether any argument tokens followed the name.
func (l Line) HasArgs() bool {
	return len(l.Args) > 0
}

// ParseLine splits a command line on ASCII whitespace. The first token is the
// command name and the rest are arguments. There is no quoting: an argument
// cannot contain whitespace. Leading and trailing Unicode whitespace is
// trimmed first, so a line of only such characters is empty.
func ParseLine(raw string) Line {
	fields := strings.FieldsFunc(strings.TrimSpace(raw), isASCIISpace)
	if len(fields) == 0 {
		return Line{}
	}
	return Line{Name: fields[0], Args: fields[1:]}
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
