// Package errors provides standardized error handling for the trawl
// application. It defines common error types, constants, and helper
// functions for consistent error creation, wrapping, and handling.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package functions re-exported for convenience.
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File-tree error kinds
	MalformedPath
	PathCollision
	PathNotFound
	RenameFailed
	// RPC error kinds
	ConnectFailed
	AuthFailed
	RPCFailed
	// Config error kinds
	InvalidConfig
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// PathError represents errors tied to a file-tree path: malformed input at
// parse time, collisions between a file and a directory at the same key,
// and rolled-back renames.
type PathError struct {
	ApplicationError
	path string
}

// NewPathError creates a new path error
func NewPathError(msg string, path string, kind ErrorKind, err error) *PathError {
	return &PathError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the path error message
func (e *PathError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the tree path associated with the error
func (e *PathError) Path() string {
	return e.path
}

// RPCError represents errors from the daemon RPC boundary.
type RPCError struct {
	ApplicationError
	method string
}

// NewRPCError creates a new RPC error
func NewRPCError(msg string, method string, kind ErrorKind, err error) *RPCError {
	return &RPCError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		method: method,
	}
}

// Error returns the RPC error message
func (e *RPCError) Error() string {
	if e.method != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.method, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.method)
	}
	return e.ApplicationError.Error()
}

// Method returns the RPC method associated with the error
func (e *RPCError) Method() string {
	return e.method
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// kindOf extracts the ErrorKind from any error in the chain, Unknown if none.
func kindOf(err error) ErrorKind {
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return pathErr.Kind()
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Kind()
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Kind()
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return Unknown
}

// IsMalformedPath checks if the error is a parse-time path error
func IsMalformedPath(err error) bool {
	k := kindOf(err)
	return k == MalformedPath || k == PathCollision
}

// IsRenameFailed checks if the error is a rename that did not apply,
// whether the target path was missing or the rename itself rolled back
func IsRenameFailed(err error) bool {
	k := kindOf(err)
	return k == RenameFailed || k == PathNotFound
}

// IsPathNotFound checks if the error names a path the tree doesn't have
func IsPathNotFound(err error) bool {
	return kindOf(err) == PathNotFound
}

// IsAuthFailed checks if the error is an authentication failure
func IsAuthFailed(err error) bool {
	return kindOf(err) == AuthFailed
}

// IsConnectFailed checks if the error is a connection failure
func IsConnectFailed(err error) bool {
	return kindOf(err) == ConnectFailed
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	return kindOf(err) == InvalidConfig
}
