package postgres

//nolint:revive
import (
	"time"
	"tourbook/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	maxIdleConnections = 10
	maxOpenConnections = 10
	connMaxLifetime    = 30 * time.Minute
)

// Connection holds the read and write pools. Both may point at the same node.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(cfg *config.Config) *Connection {
	pg := cfg.DB.Postgres
	wait := time.Duration(pg.RetryWaitTime) * time.Second

	return &Connection{
		Read:  Connect("read", pg.Read, pg.Prefix, pg.MaxRetry, wait),
		Write: Connect("write", pg.Write, pg.Prefix, pg.MaxRetry, wait),
	}
}

// Connect dials node up to attempts times and exits the process when every
// attempt fails.
func Connect(name string, node config.PostgresNode, prefix string, attempts int, wait time.Duration) *sqlx.DB {
	logger := log.With().
		Str("name", name).
		Str("host", node.Host).
		Str("port", node.Port).
		Str("dbName", prefix+node.Name).
		Logger()

	var lastErr error

	for attempt := 1; attempt <= max(attempts, 1); attempt++ {
		db, err := sqlx.Connect("postgres", node.DSN(prefix, nil))
		if err == nil {
			db.SetMaxIdleConns(maxIdleConnections)
			db.SetMaxOpenConns(maxOpenConnections)
			db.SetConnMaxLifetime(connMaxLifetime)

			logger.Info().Msg("Connected to database")

			return db
		}

		lastErr = err

		logger.Error().Err(err).Int("attempt", attempt).Msg("Failed connecting to database, retrying")
		time.Sleep(wait)
	}

	logger.Fatal().Err(lastErr).Msg("Giving up connecting to database")

	return nil
}
