// Package processor dispatches relationship updates to a processor chosen at
// runtime by the relationship's target type tag.
package processor
