package server

import "errors"

var errNotConfigured = errors.New("not configured")
