/*
LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package utils

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
)

// recoveryHandler is called with the value recover() produced. It
// returns true if the panic was considered handled.
type recoveryHandler func(w http.ResponseWriter, err any) bool

// HandledConditions selects which side effects of a recovery, if any,
// count as the panic having been handled.
type HandledConditions struct {
	HandledOnLog          bool
	HandledOnNotification bool
	HandledOnHttpError    bool
}

type recoveryConfig struct {
	fmtMsg     func(err any) string
	logOutput  func(v ...any)
	notify     func(msg string) error
	httpStatus int
	hasHTTP    bool
	handlers   []recoveryHandler
	conditions HandledConditions
	criteria   func(err any) bool
}

// recoveryOption configures a recovery handler built by
// NewConfigurableRecoveryHandler.
type recoveryOption func(*recoveryConfig)

// WithFmtMsg overrides how the panic value is formatted into the
// message that gets logged and/or notified.
func WithFmtMsg(fn func(err any) string) recoveryOption {
	return func(c *recoveryConfig) { c.fmtMsg = fn }
}

// WithLogOutput overrides where the formatted panic message is logged.
// Defaults to log.Println.
func WithLogOutput(fn func(v ...any)) recoveryOption {
	return func(c *recoveryConfig) { c.logOutput = fn }
}

// WithNotification sends the formatted panic message through notify.
// If notify returns an error, it is logged rather than propagated.
func WithNotification(notify func(msg string) error) recoveryOption {
	return func(c *recoveryConfig) { c.notify = notify }
}

// WithHttpError writes an HTTP error response with the given status
// once a panic is recovered, regardless of the final handled verdict.
func WithHttpError(status int) recoveryOption {
	return func(c *recoveryConfig) {
		c.httpStatus = status
		c.hasHTTP = true
	}
}

// WithHandlers runs handlers in order; the first one to return true
// short-circuits the remaining handlers and HandledConditions, marking
// the panic handled.
func WithHandlers(handlers ...recoveryHandler) recoveryOption {
	return func(c *recoveryConfig) { c.handlers = handlers }
}

// WithHandledConditions selects which side effects count as handling
// the panic, when no handler short-circuits first.
func WithHandledConditions(conditions HandledConditions) recoveryOption {
	return func(c *recoveryConfig) { c.conditions = conditions }
}

// WithHandlingCriteria gates the entire recovery handler: if set and it
// returns false for the panic value, nothing is logged, notified, or
// written, and the handler reports the panic as not handled.
func WithHandlingCriteria(criteria func(err any) bool) recoveryOption {
	return func(c *recoveryConfig) { c.criteria = criteria }
}

func defaultFmtMsg(err any) string {
	return fmt.Sprintf("panic: %v, stack: %s", err, debug.Stack())
}

// NewConfigurableRecoveryHandler builds a recoveryHandler from opts. It
// is used both directly (passed to NewRecoverableServeMux) and as a
// WithHandlers entry, so recovery policy can nest.
func NewConfigurableRecoveryHandler(opts ...recoveryOption) recoveryHandler {
	cfg := &recoveryConfig{
		fmtMsg:    defaultFmtMsg,
		logOutput: log.Println,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, err any) bool {
		if cfg.criteria != nil && !cfg.criteria(err) {
			return false
		}

		msg := cfg.fmtMsg(err)
		cfg.logOutput(msg)

		var notified bool
		if cfg.notify != nil {
			if nerr := cfg.notify(msg); nerr != nil {
				cfg.logOutput(fmt.Sprintf("could not notify of panic: %v", nerr))
			} else {
				notified = true
			}
		}

		var httpDone bool
		if cfg.hasHTTP {
			http.Error(w, http.StatusText(cfg.httpStatus), cfg.httpStatus)
			httpDone = true
		}

		for _, h := range cfg.handlers {
			if h(w, err) {
				return true
			}
		}

		handled := cfg.conditions.HandledOnLog ||
			(cfg.conditions.HandledOnNotification && notified) ||
			(cfg.conditions.HandledOnHttpError && httpDone)
		if !handled {
			cfg.logOutput(fmt.Sprintf("unhandled panic: %v", err))
		}
		return handled
	}
}

// RecoverableServeMux is an http.ServeMux whose handlers recover from
// panics and route them through a recoveryHandler instead of crashing
// the process.
type RecoverableServeMux struct {
	*http.ServeMux
	recover recoveryHandler
}

// NewRecoverableServeMux returns a RecoverableServeMux that calls
// recoveryCallback whenever a registered handler panics.
func NewRecoverableServeMux(recoveryCallback recoveryHandler) *RecoverableServeMux {
	return &RecoverableServeMux{ServeMux: http.NewServeMux(), recover: recoveryCallback}
}

// HandleFunc registers handler for pattern, wrapped so that a panic is
// recovered and routed through the mux's recoveryHandler.
func (m *RecoverableServeMux) HandleFunc(pattern string, handler http.HandlerFunc) {
	m.ServeMux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.recover(w, err)
			}
		}()
		handler(w, r)
	})
}
