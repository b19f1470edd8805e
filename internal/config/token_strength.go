package config

import zxcvbn "github.com/ccojocar/zxcvbn-go"

// Admin tokens scoring below this zxcvbn score are flagged at startup.
const weakTokenScoreThreshold = 3

// IsWeakToken reports whether the admin token is guessable enough to warn
// about. An empty token disables the admin surface entirely, so it is not
// treated as weak here.
func IsWeakToken(token string) bool {
	if token == "" {
		return false
	}
	return zxcvbn.PasswordStrength(token, nil).Score < weakTokenScoreThreshold
}
