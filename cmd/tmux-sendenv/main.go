// tmux-sendenv updates environment variables in a running tmux server.
package main

import "github.com/abhinav/sendenv/internal/cli"

var _version = "dev"

func main() {
	cli.Main(cli.Program{
		Name:        "tmux-sendenv",
		Version:     _version,
		SessionType: cli.Tmux,
	})
}
