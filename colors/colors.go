package colors

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
)

// Status paints an http status code green, or red for 4xx and 5xx
func Status(code int) string {
	if code >= 400 {
		return Red(code)
	}
	return Green(code)
}

// Tag returns a "[name] " log prefix in the given color
func Tag(paint func(a ...interface{}) string, name string) string {
	return paint(fmt.Sprintf("[%v] ", name))
}
