// Package privacy masks personal data before it reaches logs.
package privacy

import "strings"

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "jane.doe@probation.gov.uk" becomes "j***@probation.gov.uk".
// Returns "unknown" for empty input and "invalid" when there is no domain.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "unknown"
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "invalid"
	}
	return local[:1] + "***@" + domain
}

// MaskName reduces a person's name to initials, e.g. "John Smith" -> "J. S.".
func MaskName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "unknown"
	}
	initials := make([]string, 0, len(fields))
	for _, f := range fields {
		initials = append(initials, strings.ToUpper(f[:1])+".")
	}
	return strings.Join(initials, " ")
}
