package db

import (
	"context"
	"database/sql"
	"fmt"
	"heartbeat/config"
	"heartbeat/logger"
	nurl "net/url"
	"os"
	"sort"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v4/stdlib"
)

type ServerID struct {
	// ex. GREEN
	ConfigName string

	// ex. GREEN_URL
	ConfigVarName string

	// db name
	Database string
}

// Separating the sensitive client and URL state from the probe samples
// to ensure the URL and client are not leaked to other packages
type PostgresClient struct {
	client *Client

	serverID *ServerID

	// ex. postgres://<user>:<pass>@<host>:<port>/<db>
	url string

	// ex host from url
	host string
}

type Client struct {
	conn *sql.DB
	mu   *sync.Mutex
}

// BuildPostgresClients finds every *_URL env var holding a postgres url,
// ordered by var name
func BuildPostgresClients(config config.Config) []*PostgresClient {
	var postgresClients []*PostgresClient

	environ := os.Environ()
	sort.Strings(environ)

	for _, e := range environ {
		configVar := strings.SplitN(e, "=", 2)
		if len(configVar) != 2 {
			continue
		}
		if strings.HasSuffix(configVar[0], "_URL") && strings.HasPrefix(configVar[1], "postgres://") {
			postgresClients = append(postgresClients, NewPostgresClient(config, configVar))
		}
	}

	return postgresClients
}

func NewPostgresClient(config config.Config, configVar []string) *PostgresClient {
	varName := configVar[0]
	url := configVar[1]
	// support both HEROKU_POSTGRESQL_BLUE_URL and BLUE_URL config vars
	configName := strings.ReplaceAll(varName, "HEROKU_POSTGRESQL_", "")
	configName = strings.TrimSuffix(configName, "_URL")

	var host, database string
	parsedURL, err := nurl.Parse(url)
	if err != nil {
		logger.Warn("Invalid postgres url", "config_var", varName)
	} else {
		host = parsedURL.Hostname()
		database = strings.TrimPrefix(parsedURL.Path, "/")
	}

	// set application name for db connections
	url += separator(url) + "application_name=heartbeat-agent"
	url += "&statement_cache_mode=describe" // don't use prepared statements since pgbouncer doesn't support it

	return &PostgresClient{
		client: NewClient(url),
		serverID: &ServerID{
			ConfigName:    configName,
			ConfigVarName: varName,
			Database:      database,
		},
		url:  url,
		host: host,
	}
}

func NewClient(dbURL string) *Client {
	return &Client{
		conn: NewConn(dbURL),
		mu:   &sync.Mutex{},
	}
}

// NewConn does not connect; the first probe does
func NewConn(dbURL string) *sql.DB {
	conn, err := sql.Open("pgx", dbURL)
	if err != nil {
		logger.Error("Unable to open database", "err", err)
		return nil
	}

	// restrict to a single connection to prevent opening too many connections
	conn.SetMaxOpenConns(1)

	return conn
}

func (c *PostgresClient) ServerID() *ServerID {
	return c.serverID
}

func (c *PostgresClient) Host() string {
	return c.host
}

func (c *PostgresClient) Close() error {
	return c.client.Close()
}

// wrap Ping with mutex to ensure only one active connection is used at one time
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("no database connection")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.PingContext(ctx)
}

func (c *Client) QueryRowString(ctx context.Context, query string) (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("no database connection")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var value string
	err := c.conn.QueryRowContext(ctx, query).Scan(&value)
	return value, err
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func separator(url string) string {
	if strings.Contains(url, "?") {
		return "&"
	}
	return "?"
}
