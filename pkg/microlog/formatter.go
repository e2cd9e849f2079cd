package microlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuuhhe/microlog/pkg/log"
)

// Level is the severity attached to an appended entry.
type Level = log.Level

const (
	DebugLevel = log.DebugLevel
	InfoLevel  = log.InfoLevel
	WarnLevel  = log.WarnLevel
	ErrorLevel = log.ErrorLevel
	FatalLevel = log.FatalLevel
)

// Formatter renders one log call as a line of text.
type Formatter interface {
	Format(clientID, name string, ts int64, level Level, message any, err error) string
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(clientID, name string, ts int64, level Level, message any, err error) string

func (f FormatterFunc) Format(clientID, name string, ts int64, level Level, message any, err error) string {
	return f(clientID, name, ts, level, message, err)
}

// SimpleFormatter renders "ts:[LEVEL]-clientID-name-message-error",
// leaving out empty parts.
type SimpleFormatter struct {
	// Delimiter separates parts; "-" when empty.
	Delimiter string
}

func (f SimpleFormatter) Format(clientID, name string, ts int64, level Level, message any, err error) string {
	delim := f.Delimiter
	if delim == "" {
		delim = "-"
	}
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(ts, 10))
	sb.WriteString(":[")
	sb.WriteString(level.String())
	sb.WriteByte(']')
	add := func(s string) {
		if s == "" {
			return
		}
		sb.WriteString(delim)
		sb.WriteString(s)
	}
	add(clientID)
	add(name)
	if message != nil {
		add(fmt.Sprint(message))
	}
	if err != nil {
		add(err.Error())
	}
	return sb.String()
}
