package binding

import "strings"

// EnvVar is one KEY=VALUE environment entry.
type EnvVar struct {
	Key   string
	Value string
}

func (e EnvVar) String() string {
	return e.Key + "=" + e.Value
}

// ParseEnv parses "KEY=VALUE", splitting on the first '='.
func ParseEnv(raw string) (EnvVar, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return EnvVar{}, parseErr(KindEnv, raw, "missing '='")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return EnvVar{}, parseErr(KindEnv, raw, "empty key")
	}
	return EnvVar{Key: key, Value: value}, nil
}
