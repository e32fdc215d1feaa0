// Package pgdsn rewrites Postgres connection strings shared between the pgx
// based tooling that provisions DB_URL and the lib/pq driver used here. Both
// the URL form and the keyword/value form are handled.
package pgdsn

import (
	"net/url"
	"strings"
)

// pgxOnlyKeys are understood by pgx but forwarded by lib/pq to the server as
// runtime parameters, which Postgres rejects.
var pgxOnlyKeys = []string{"disable_prepared_binary_result", "default_query_exec_mode", "statement_cache_capacity"}

type Options struct {
	// BinaryParameters turns on lib/pq's binary_parameters unless the DSN
	// already sets it.
	BinaryParameters bool
}

// Normalize drops pgx-only keys and applies opts. Input that is neither a
// URL nor a keyword DSN is returned as is.
func Normalize(raw string, opts Options) string {
	trimmed := strings.TrimSpace(raw)
	if u, ok := parseURL(trimmed); ok {
		q := u.Query()
		for _, k := range pgxOnlyKeys {
			q.Del(k)
		}
		if opts.BinaryParameters && q.Get("binary_parameters") == "" {
			q.Set("binary_parameters", "yes")
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	pairs, ok := parseKeywords(trimmed)
	if !ok {
		return raw
	}
	out := make([]string, 0, len(pairs)+1)
	hasBinary := false
	for _, p := range pairs {
		if isPgxOnly(p.key) {
			continue
		}
		if p.key == "binary_parameters" {
			hasBinary = true
		}
		out = append(out, p.text)
	}
	if opts.BinaryParameters && !hasBinary {
		out = append(out, "binary_parameters=yes")
	}
	return strings.Join(out, " ")
}

// DatabaseName returns the target database, or "" when the DSN names none.
func DatabaseName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if u, ok := parseURL(trimmed); ok {
		return strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	}
	pairs, _ := parseKeywords(trimmed)
	for _, p := range pairs {
		if p.key == "dbname" {
			return strings.Trim(p.value, `"'`)
		}
	}
	return ""
}

func parseURL(s string) (*url.URL, bool) {
	if !strings.HasPrefix(s, "postgres://") && !strings.HasPrefix(s, "postgresql://") {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	return u, true
}

type keyword struct {
	key   string
	value string
	text  string
}

// parseKeywords splits "host=x dbname=y" into pairs. Quoted values with
// spaces are not supported; DB_URL never carries them.
func parseKeywords(s string) ([]keyword, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, false
	}
	pairs := make([]keyword, 0, len(fields))
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, false
		}
		pairs = append(pairs, keyword{key: k, value: v, text: f})
	}
	return pairs, true
}

func isPgxOnly(key string) bool {
	for _, k := range pgxOnlyKeys {
		if k == key {
			return true
		}
	}
	return false
}
