package snowflake

import "strings"

// Config holds Snowflake connection settings
type Config struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	// Table holds daily offer performance rows.
	Table        string
	LookbackDays int
}

// ParseConnectionString extracts components from the connection string
// Format: scheme=https;ACCOUNT=xxx;HOST=yyy;port=443;USER=zzz;PASSWORD=www;DB=aaa.bbb;WAREHOUSE=ccc
func ParseConnectionString(connStr string) Config {
	parts := make(map[string]string)
	for _, kv := range strings.Split(connStr, ";") {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			parts[strings.ToUpper(strings.TrimSpace(kv[:idx]))] = strings.TrimSpace(kv[idx+1:])
		}
	}

	// Parse database.schema from DB field if present
	database, schema := parts["DB"], parts["SCHEMA"]
	if idx := strings.IndexByte(database, '.'); idx > 0 {
		database, schema = database[:idx], database[idx+1:]
	}

	return Config{
		Account:   parts["ACCOUNT"],
		User:      parts["USER"],
		Password:  parts["PASSWORD"],
		Database:  database,
		Schema:    schema,
		Warehouse: parts["WAREHOUSE"],
	}
}
