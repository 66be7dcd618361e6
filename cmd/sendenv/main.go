// sendenv updates environment variables in a running screen or tmux session,
// whichever is found first.
package main

import "github.com/abhinav/sendenv/internal/cli"

var _version = "dev"

func main() {
	cli.Main(cli.Program{
		Name:        "sendenv",
		Version:     _version,
		SessionType: cli.Auto,
	})
}
