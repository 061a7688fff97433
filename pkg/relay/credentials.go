package relay

import "os"

// CredentialSource resolves a named secret. The relay asks for the variant's
// credential on every call and never reads the environment itself.
type CredentialSource interface {
	Lookup(name string) (string, bool)
}

// EnvCredentials reads secrets from the process environment.
type EnvCredentials struct{}

func (EnvCredentials) Lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// StaticCredentials serves secrets from a fixed map.
type StaticCredentials map[string]string

func (s StaticCredentials) Lookup(name string) (string, bool) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
