package binding

import "strings"

// LinkBinding links another container into this one under an alias.
type LinkBinding struct {
	Target string
	Alias  string
}

// String renders the link in Docker format ("target:alias").
func (l LinkBinding) String() string {
	return l.Target + ":" + l.Alias
}

// ParseLink parses "TARGETNAME:ALIAS", splitting on the first colon.
func ParseLink(raw string) (LinkBinding, error) {
	target, alias, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return LinkBinding{}, parseErr(KindLink, raw, "missing alias")
	}
	if target == "" {
		return LinkBinding{}, parseErr(KindLink, raw, "empty target")
	}
	if alias == "" {
		return LinkBinding{}, parseErr(KindLink, raw, "empty alias")
	}
	return LinkBinding{Target: target, Alias: alias}, nil
}
