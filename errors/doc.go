// Package errors defines the error taxonomy of the persistence layer: client
// input errors raised while composing queries, configuration faults, and the
// mapping of those and of store failures to outward status codes.
package errors
