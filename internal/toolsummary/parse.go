package toolsummary

import "strings"

// Parse is the emitter's round-trip counterpart: it recovers the tool
// name and field map from a rendered `Name(key1="v1", key2="v2")` line.
// Truncated or escaped values are returned as-is (truncation is lossy by
// design; escaping is reversed).
func Parse(line string) (name string, fields map[string]string) {
	open := strings.IndexByte(line, '(')
	if open < 0 || !strings.HasSuffix(line, ")") {
		return line, nil
	}
	name = line[:open]
	body := line[open+1 : len(line)-1]
	fields = map[string]string{}
	if body == "" {
		return name, fields
	}

	for _, part := range splitTopLevelCommas(body) {
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(part[:eq])
		val := strings.TrimSpace(part[eq+1:])
		val = strings.TrimPrefix(val, `"`)
		val = strings.TrimSuffix(val, `"`)
		val = strings.ReplaceAll(val, `\"`, `"`)
		fields[key] = val
	}
	return name, fields
}

// splitTopLevelCommas splits on ", " while respecting quoted segments, so
// a comma inside an escaped string value doesn't split a field in two.
func splitTopLevelCommas(body string) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			if i == 0 || body[i-1] != '\\' {
				inQuotes = !inQuotes
			}
		case ',':
			if !inQuotes {
				parts = append(parts, body[start:i])
				start = i + 1
				for start < len(body) && body[start] == ' ' {
					start++
				}
				i = start - 1
			}
		}
	}
	parts = append(parts, body[start:])
	return parts
}
