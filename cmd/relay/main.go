package main

import "github.com/reshetovitsme/channel-relay/internal/cli"

func main() {
	cli.Execute()
}
