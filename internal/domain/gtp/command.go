package gtp

import (
	"fmt"
	"strconv"
	"strings"
)

type Color string

const (
	ColorBlack Color = "B"
	ColorWhite Color = "W"
)

func (c Color) Valid() bool {
	return c == ColorBlack || c == ColorWhite
}

func (c Color) Opponent() Color {
	if c == ColorBlack {
		return ColorWhite
	}
	return ColorBlack
}

// Command is one engine control command. Args is nil for commands that take
// no arguments.
type Command struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
	Args []any  `json:"args,omitempty"`
}

func (c Command) WithID(id int64) Command {
	c.ID = &id
	return c
}

// String renders the command line without the trailing newline.
func (c Command) String() string {
	var b strings.Builder
	if c.ID != nil {
		b.WriteString(strconv.FormatInt(*c.ID, 10))
		b.WriteByte(' ')
	}
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(formatArg(arg))
	}
	return b.String()
}

func formatArg(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case Color:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
