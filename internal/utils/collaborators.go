package utils

import (
	"strings"
)

// NormalizeCollaborators canonicalizes a free-text collaborators field into a
// comma-separated list of lowercased email addresses. Input may be separated
// by commas, semicolons, or whitespace; entries without an "@" are dropped,
// duplicates are removed, order of first appearance is kept.
func NormalizeCollaborators(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	seen := make(map[string]struct{}, len(fields))
	emails := make([]string, 0, len(fields))
	for _, f := range fields {
		email := strings.ToLower(strings.TrimSpace(f))
		if !looksLikeEmail(email) {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}

	return strings.Join(emails, ",")
}

// HasCollaborator reports whether email is an exact member of a normalized
// collaborators list. Exact membership, not substring: "bob@x.com" does not
// match a list containing only "notbob@x.com".
func HasCollaborator(collaborators, email string) bool {
	if collaborators == "" || email == "" {
		return false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, c := range strings.Split(collaborators, ",") {
		if c == email {
			return true
		}
	}
	return false
}

// SplitCollaborators returns the entries of a normalized list.
func SplitCollaborators(collaborators string) []string {
	if collaborators == "" {
		return nil
	}
	return strings.Split(collaborators, ",")
}

func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1
}
