package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type formatter interface {
	format(ts time.Time, level Level, msg string, fields Fields) string
}

// consoleFormatter renders human-readable single-line entries.
type consoleFormatter struct{}

func (consoleFormatter) format(ts time.Time, level Level, msg string, fields Fields) string {
	var b strings.Builder
	b.WriteString(ts.Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	return b.String()
}

// jsonFormatter renders one JSON object per entry.
type jsonFormatter struct{}

func (jsonFormatter) format(ts time.Time, level Level, msg string, fields Fields) string {
	entry := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["time"] = ts.Format(time.RFC3339)
	entry["level"] = level.String()
	entry["message"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), msg)
	}
	return string(data)
}
