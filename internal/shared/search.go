package shared

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike neutralizes LIKE/ILIKE wildcards in a user-supplied search
// term so it matches literally.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}
