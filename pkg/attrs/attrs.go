package attrs

import "fmt"

// ExtractString extracts a value from a key-value attribute slice formatted
// as [key1, value1, key2, value2, ...]. Strings are returned as-is and
// fmt.Stringer values (typed ids, enums) through String. Returns "" when the
// key is missing or the value has neither form.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}

