// Package repository provides a generic repository built on Bun: CRUD by
// identifier, query composition with filters, sorting, eager loading and
// pagination, relationship updates and upserts.
package repository
