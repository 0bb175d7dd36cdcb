// Package query composes filters, sort keys, eager loads and page bounds over
// a lazily evaluated Query. Composition validates names and values against
// the resource metadata and never performs I/O; List, First, Count and the
// page functions are the terminal operations.
package query
