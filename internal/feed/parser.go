package feed

import (
	"strconv"
	"strings"
)

// Fields is the cleaned field slice of one delimited line.
type Fields []string

// Str returns the field at index i, or "" when the line is too short.
func (f Fields) Str(i int) string {
	if i < 0 || i >= len(f) {
		return ""
	}
	return f[i]
}

// Float parses the field at index i as a float. The upstream mixes decimal
// comma and decimal point; comma is normalized before parsing. A missing or
// unparseable field yields nil, never an error: a record with a hole in its
// numeric data is still usable.
func (f Fields) Float(i int) *float64 {
	s := cleanNumber(f.Str(i))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Bool interprets the field at index i as a flag. The feeds use "1"/"0" and
// occasionally "sim"/"true"; anything else is false.
func (f Fields) Bool(i int) bool {
	switch strings.ToLower(f.Str(i)) {
	case "1", "true", "sim", "s":
		return true
	}
	return false
}

// cleanField strips stray quote characters and surrounding whitespace. The
// upstream emits unbalanced quotes mid-field, so this is a removal, not a
// quoting grammar.
func cleanField(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	return strings.TrimSpace(s)
}

// cleanNumber additionally normalizes the decimal comma to a decimal point.
func cleanNumber(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

// DropFunc is invoked once per skipped line with the 1-based line number and
// a short reason. It exists for logging and counters; it must not abort the
// batch.
type DropFunc func(line int, reason string)

// SplitLine splits one raw line on the schema delimiter and cleans each
// field. It returns ok=false when the field count is below the schema
// minimum; the caller must keep processing subsequent lines.
func SplitLine(raw string, s Schema) (Fields, bool) {
	parts := strings.Split(raw, s.Delimiter)
	fields := make(Fields, len(parts))
	for i, p := range parts {
		fields[i] = cleanField(p)
	}
	if len(fields) < s.MinFields {
		return nil, false
	}
	return fields, true
}

// ParseBatch splits body into non-blank lines, decodes each with decode, and
// returns at most maxRecords records. Malformed lines and decode rejections
// are skipped (reported through onDrop when non-nil) and never abort the
// batch. Truncation happens after filtering: the first maxRecords valid
// records win, in encounter order.
func ParseBatch[T any](body string, s Schema, maxRecords int, decode func(Fields) (T, bool), onDrop DropFunc) []T {
	var out []T
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	for n, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		fields, ok := SplitLine(raw, s)
		if !ok {
			drop(onDrop, n+1, "too few fields")
			continue
		}
		rec, ok := decode(fields)
		if !ok {
			drop(onDrop, n+1, "required field missing")
			continue
		}
		out = append(out, rec)
		if maxRecords > 0 && len(out) == maxRecords {
			break
		}
	}
	return out
}

func drop(fn DropFunc, line int, reason string) {
	if fn != nil {
		fn(line, reason)
	}
}
