package export

import (
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename builds "<sanitized-name>-<YYYY-MM-DD>.<ext>" using the UTC date of at.
// Every character outside [A-Za-z0-9] becomes a dash and the result is lowercased.
func Filename(name string, at time.Time, format Format) string {
	sanitized := strings.ToLower(unsafeFilenameChars.ReplaceAllString(name, "-"))
	return sanitized + "-" + at.UTC().Format("2006-01-02") + "." + string(format)
}
