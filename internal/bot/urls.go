package bot

import (
	"net/url"
	"slices"
	"strings"
)

// sourceURL extracts the first http(s) link in text whose host is one of
// allowedHosts. Hosts compare case-insensitively and exactly.
func sourceURL(text string, allowedHosts []string) (string, bool) {
	for _, field := range strings.Fields(text) {
		parsed, err := url.Parse(strings.Trim(field, "<>()\"'"))
		if err != nil {
			continue
		}
		scheme := strings.ToLower(parsed.Scheme)
		if scheme != "http" && scheme != "https" {
			continue
		}
		host := strings.ToLower(parsed.Hostname())
		if host != "" && slices.Contains(allowedHosts, host) {
			return parsed.String(), true
		}
	}
	return "", false
}
