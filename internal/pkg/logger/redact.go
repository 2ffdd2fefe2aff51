package logger

// RedactToken masks an API credential for safe logging. Only the
// first four characters survive ("eyJhbGciOiJIUzI1NiJ9..." becomes
// "eyJh***"), enough to tell tokens apart without leaking them.
// Tokens of 8 characters or fewer are fully masked.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "***"
}
