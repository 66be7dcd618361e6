// Package muxtest provides test doubles for the mux package.
package muxtest

//go:generate mockgen -destination mock_driver.go -package muxtest github.com/abhinav/sendenv/internal/mux Driver
