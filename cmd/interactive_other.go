//go:build !windows

package main

// enableVT does nothing: POSIX terminals already interpret ANSI sequences.
func enableVT() (restore func()) { return func() {} }
