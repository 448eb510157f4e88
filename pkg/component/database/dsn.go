package database

import (
	"fmt"
	"net/url"
	"strings"

	dbopts "github.com/kart-io/labelhub/pkg/options/database"
)

// MySQLDSN builds username:password@tcp(host:port)/database?params with
// the password escaped.
func MySQLDSN(opts *dbopts.Options) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		opts.Username,
		url.QueryEscape(opts.Password),
		opts.Host,
		opts.Port,
		opts.Database,
	)
}

// PostgresDSN builds a key=value DSN, quoting the password when needed.
func PostgresDSN(opts *dbopts.Options) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		opts.Host,
		opts.Port,
		opts.Username,
		quotePostgres(opts.Password),
		opts.Database,
		opts.SSLMode,
	)
}

func quotePostgres(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, ` '\=`) {
		return value
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}
