//go:build windows

package extsort

const lineEnding = "\r\n"
