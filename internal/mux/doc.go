// Package mux updates the environment of a running terminal multiplexer.
//
// It supports screen(1) and tmux(1). Both are driven through their own
// command line clients: "screen -X setenv" and "tmux setenv". A [Sender]
// talks to one multiplexer [Kind] and is obtained from [Open], which
// verifies that the multiplexer is reachable, or from [Detect], which tries
// every known kind in turn.
package mux
