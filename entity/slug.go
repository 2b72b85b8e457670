package entity

import "strings"

// Slugify derives a URL-safe slug: lowercase ASCII letters and digits,
// every other run of characters collapsed to a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ValidSlug reports whether s is already in Slugify form.
func ValidSlug(s string) bool {
	return s != "" && Slugify(s) == s
}
