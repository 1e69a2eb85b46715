//go:build windows

package server

import "syscall"

// sighup is never delivered on Windows, config reload is not supported
// there.
const sighup = syscall.SIGHUP
