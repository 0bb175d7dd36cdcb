// Package database provides connection management, YAML and environment
// configuration, query hooks, logging, schema creation for registered models
// and SQL error classification, built on top of Bun.
package database
