package dbclient

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"ihaboard/internal/domain"
)

// buildMySQLDSN returns cfg.DSN or constructs one from the host fields.
func buildMySQLDSN(cfg domain.StoreConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.Params = map[string]string{"charset": "utf8mb4"}
	if cfg.SSLMode == "require" {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN()
}
