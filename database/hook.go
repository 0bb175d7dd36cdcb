/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

var silent atomic.Bool

// EnableBunSqlSilent mutes the query hooks, e.g. while creating tables.
func EnableBunSqlSilent(b bool) {
	silent.Store(b)
}

func colorWrap(s, code string) string { return code + s + ansiReset }

// QueryHookOption configures a QueryHook.
type QueryHookOption func(*QueryHook)

// WithQueryLogEnv names the environment variable that overrides the hook:
// "0" or empty disables it, "1" logs failures, "2" logs every query.
func WithQueryLogEnv(name string) QueryHookOption {
	return func(h *QueryHook) { h.envName = name }
}

// WithVerbose logs successful queries too.
func WithVerbose(verbose bool) QueryHookOption {
	return func(h *QueryHook) { h.verbose = verbose }
}

// WithWriter sets the destination of the hook output.
func WithWriter(w io.Writer) QueryHookOption {
	return func(h *QueryHook) { h.writer = w }
}

// QueryHook prints executed statements colored by operation.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns an enabled hook writing to stdout.
func NewQueryHook(opts ...QueryHookOption) *QueryHook {
	h := &QueryHook{envName: "BUN_QUERY_LOG", enabled: true, writer: os.Stdout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if silent.Load() {
		return
	}
	enabled, verbose := h.enabled, h.verbose
	if env, ok := os.LookupEnv(h.envName); ok {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		colorWrap(fmt.Sprintf("%8s", "[BUN]"), ansiCyan),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		" ", colorWrap(event.Query, operationColor(event.Operation())),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", color.New(color.BgRed).Sprintf(" %s: %s ", typ, event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func operationColor(operation string) string {
	switch operation {
	case "SELECT":
		return ansiGreen
	case "INSERT":
		return ansiBlue
	case "UPDATE":
		return ansiYellow
	case "DELETE":
		return ansiMagenta
	default:
		return ansiRed
	}
}

// SlowQueryHook warns through the package logger about statements that take
// longer than the threshold.
type SlowQueryHook struct {
	threshold time.Duration
	logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

// NewSlowQueryHook returns a hook reporting to logger, or to the package
// logger when logger is nil.
func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{threshold: threshold, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if silent.Load() || event.Err != nil || h.threshold <= 0 {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.threshold {
		return
	}
	logger := h.logger
	if logger == nil {
		logger = GetLogger()
	}
	logger.Warn("Database slow query detected",
		"duration", duration.Round(time.Microsecond),
		"slow_threshold", h.threshold,
		"query", color.YellowString(event.Query),
	)
}
