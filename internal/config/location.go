package config

import "strings"

// Location is a configured input path or URL, classified once at load time.
// A Location with an empty Scheme refers to a local file.
type Location struct {
	Raw    string
	Scheme string
}

// ParseLocation classifies raw as a local path or a remote resource.
// Scheme detection mirrors URL splitting: a scheme is a letter followed by
// letters, digits, '+', '-' or '.', terminated by ':'. The scheme is lowercased.
func ParseLocation(raw string) Location {
	raw = strings.TrimSpace(raw)
	return Location{
		Raw:    raw,
		Scheme: splitScheme(raw),
	}
}

// IsRemote reports whether the location names a remote resource.
func (l Location) IsRemote() bool {
	return l.Scheme != ""
}

// IsZero reports whether nothing was configured.
func (l Location) IsZero() bool {
	return l.Raw == ""
}

func splitScheme(raw string) string {
	i := strings.IndexByte(raw, ':')
	if i <= 0 {
		return ""
	}
	if !isASCIILetter(raw[0]) {
		return ""
	}
	for j := 1; j < i; j++ {
		c := raw[j]
		if isASCIILetter(c) || ('0' <= c && c <= '9') || c == '+' || c == '-' || c == '.' {
			continue
		}
		return ""
	}
	return strings.ToLower(raw[:i])
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
