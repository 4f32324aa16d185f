// Package dbquery holds small SQL fragments shared by the repos.
package dbquery

import "strings"

// Like is a case-insensitive LIKE on col. Pair it with Contains so the
// pattern's wildcards are escaped with the same character.
func Like(col string) string {
	return "LOWER(" + col + `) LIKE ? ESCAPE '\'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains lowercases s and wraps it for a substring match. % and _ in s
// match literally.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
