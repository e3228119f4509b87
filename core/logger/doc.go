// Package logger records structured trace events from the shell as
// newline delimited JSON, one protobuf Struct per line, and summarizes
// recorded logs.
package logger
