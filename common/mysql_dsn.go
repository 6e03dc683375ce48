package common

import (
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gosqlmysql "github.com/go-sql-driver/mysql"
)

// NormalizeMySQLDSN accepts either a go-sql-driver DSN or a mysql:// URL and returns a driver DSN
// with parseTime forced on. Without an explicit loc the location is UTC.
func NormalizeMySQLDSN(dsn string) (string, error) {
	raw := dsn
	if strings.HasPrefix(strings.ToLower(dsn), "mysql://") {
		var err error
		if raw, err = mysqlURLToDSN(dsn); err != nil {
			return "", errors.Wrap(err, "convert mysql url")
		}
	}

	cfg, err := gosqlmysql.ParseDSN(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse MySQL DSN")
	}

	cfg.ParseTime = true
	if !hasLocOption(raw) {
		cfg.Loc = time.UTC
	}

	return cfg.FormatDSN(), nil
}

func mysqlURLToDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if u.Host == "" {
		return "", errors.New("mysql DSN missing host")
	}

	cfg := gosqlmysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	dsn := cfg.FormatDSN()
	if u.RawQuery != "" {
		if strings.Contains(dsn, "?") {
			dsn += "&" + u.RawQuery
		} else {
			dsn += "?" + u.RawQuery
		}
	}
	return dsn, nil
}

func hasLocOption(dsn string) bool {
	_, query, found := strings.Cut(dsn, "?")
	if !found {
		return false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return false
	}
	return values.Has("loc")
}
