package site

import "strings"

// FetchValue returns the value of key in a ";key=value;key=value" body. The
// value runs to the next ';' or the end of the body. The first occurrence of
// the key wins; ok is false when the key is absent.
func FetchValue(body, key string) (value string, ok bool) {
	token := ";" + key + "="
	i := strings.Index(body, token)
	if i < 0 {
		return "", false
	}
	rest := body[i+len(token):]
	if j := strings.IndexByte(rest, ';'); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

// ParseFormValues splits a ";key=value" body into a map. Segments without
// '=' are skipped and the first occurrence of a key wins.
func ParseFormValues(body string) map[string]string {
	values := make(map[string]string)
	for _, seg := range strings.Split(body, ";") {
		key, value, found := strings.Cut(seg, "=")
		if !found || key == "" {
			continue
		}
		if _, seen := values[key]; !seen {
			values[key] = value
		}
	}
	return values
}
