package shared

import "regexp"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail performs a basic syntactic email check
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
