// screen-sendenv updates environment variables in a running screen session.
package main

import "github.com/abhinav/sendenv/internal/cli"

var _version = "dev"

func main() {
	cli.Main(cli.Program{
		Name:        "screen-sendenv",
		Version:     _version,
		SessionType: cli.Screen,
	})
}
