// Package client provides the `snakebyte` command-line client.
//
// The CLI talks to the SnakeByte HTTP API to perform common queue
// operations from a terminal: enqueue/dequeue, bucket listing and
// management, stats, and batch enqueue from script files. It is primarily
// intended for developers and operators.
//
// Installation
//
//	go install github.com/ssokolow/snakebyte/cmd/snakebyte@latest
package client
