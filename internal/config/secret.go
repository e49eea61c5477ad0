package config

import "strings"

// WeakSecret reports whether the signing secret looks guessable. The gateway
// still starts with a weak secret but logs a warning.
func (c *Config) WeakSecret() bool {
	return isWeakSecret(c.Secret)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 16 {
		return true
	}

	weakPatterns := []string{"abc", "123", "password", "secret", "changeme"}
	lower := strings.ToLower(secret)
	for _, pattern := range weakPatterns {
		if strings.HasPrefix(lower, pattern) {
			return true
		}
	}

	allSame := true
	for i := 1; i < len(secret); i++ {
		if secret[i] != secret[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return true
	}

	digitsOnly := true
	for i := 0; i < len(secret); i++ {
		if secret[i] < '0' || secret[i] > '9' {
			digitsOnly = false
			break
		}
	}
	return digitsOnly
}
