package routes

import (
	"path"
	"sort"
	"strings"
)

// Table maps normalized request paths to template names. It is never modified
// after Build.
type Table struct {
	entries map[string]string
}

// Normalize cleans p and drops any trailing slash, "" and "/" both become "/".
func Normalize(p string) string {
	return path.Clean("/" + p)
}

func (t *Table) Lookup(requestPath string) (string, bool) {
	if t == nil {
		return "", false
	}
	tpl, found := t.entries[Normalize(requestPath)]
	return tpl, found
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) Paths() []string {
	if t == nil {
		return nil
	}
	res := make([]string, 0, len(t.entries))
	for p := range t.entries {
		res = append(res, p)
	}
	sort.Strings(res)
	return res
}

func isIndex(name, ext string) bool {
	return strings.TrimSuffix(path.Base(name), ext) == "index"
}
