// Package resource resolves public attribute and relationship names to bun
// columns and relations. A Graph is built once at startup from bun's table
// metadata and is read-only afterwards.
package resource
