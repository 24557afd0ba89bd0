package database

import (
	"fmt"
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name into a connection string.
// sslmode=disable is appended unless the URL already sets a mode. An empty database
// name returns the base URL unchanged.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, _ := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	base = strings.TrimRight(base, "/")

	params, err := url.ParseQuery(query)
	if err != nil {
		// Leave malformed query strings for pgx to report
		return fmt.Sprintf("%s/%s?%s", base, databaseName, query)
	}
	if !params.Has("sslmode") {
		if query != "" {
			query += "&"
		}
		query += "sslmode=disable"
	}

	return fmt.Sprintf("%s/%s?%s", base, databaseName, query)
}
