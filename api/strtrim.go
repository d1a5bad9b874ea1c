package api

import "strings"

// TrimStrToRect keeps at most maxHeight lines of at most maxWidth runes,
// marking every cut with "[...]".
func TrimStrToRect(s string, maxHeight int, maxWidth int) string {
	res := ""
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	for i, line := range lines {
		if i > 0 {
			res += "\n"
		}
		res += trimLine(line, maxWidth)
	}
	return res
}

func trimLine(line string, maxWidth int) string {
	n := 0
	for i := range line {
		if n == maxWidth {
			return line[:i] + "[...]"
		}
		n++
	}
	return line
}
