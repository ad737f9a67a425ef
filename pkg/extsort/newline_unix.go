//go:build !windows

package extsort

const lineEnding = "\n"
