/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package options opens a *sql.DB for a registered driver name and applies
// connection pool settings through a functional-options constructor,
// pulling in the concrete drivers the dynasql/driver package names resolve
// to at the database/sql level.
package options

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	sqlite "modernc.org/sqlite"
)

// modernc.org/sqlite registers itself as "sqlite". dynasql's driver
// package names the dialect "sqlite3" (matching the historical driver
// name most MyBatis-style configs carry over from mattn/go-sqlite3), so
// register a second name pointing at the same driver.
func init() {
	sql.Register("sqlite3", &sqlite.Driver{})
}

type connectConfig struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	connMaxIdleTime time.Duration
}

// ConnectOption configures a Connect call.
type ConnectOption func(*connectConfig)

// ConnectWithMaxOpenConnNum sets the maximum number of open connections.
// Values <= 0 leave database/sql's default (unlimited) in place.
func ConnectWithMaxOpenConnNum(n int) ConnectOption {
	return func(c *connectConfig) { c.maxOpenConns = n }
}

// ConnectWithMaxIdleConnNum sets the maximum number of idle connections.
func ConnectWithMaxIdleConnNum(n int) ConnectOption {
	return func(c *connectConfig) { c.maxIdleConns = n }
}

// ConnectWithMaxConnLifetime sets the maximum amount of time a connection
// may be reused.
func ConnectWithMaxConnLifetime(d time.Duration) ConnectOption {
	return func(c *connectConfig) { c.connMaxLifetime = d }
}

// ConnectWithMaxIdleConnLifetime sets the maximum amount of time an idle
// connection may sit in the pool before being closed.
func ConnectWithMaxIdleConnLifetime(d time.Duration) ConnectOption {
	return func(c *connectConfig) { c.connMaxIdleTime = d }
}

// Connect opens a *sql.DB for driverName and dsn and applies opts to its
// connection pool. It does not eagerly ping; database/sql connects lazily
// on first use.
func Connect(driverName, dsn string, opts ...ConnectOption) (*sql.DB, error) {
	cfg := &connectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.maxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.maxOpenConns)
	}
	if cfg.maxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.maxIdleConns)
	}
	if cfg.connMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.connMaxLifetime)
	}
	if cfg.connMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.connMaxIdleTime)
	}

	return db, nil
}
