package main

import (
	"github.com/gsinghjay/mvp-qr-gen-sub001/cmd"

	// Subcommands register themselves with the root command via init().
	_ "github.com/gsinghjay/mvp-qr-gen-sub001/cmd/cli"
	_ "github.com/gsinghjay/mvp-qr-gen-sub001/cmd/server"
)

func main() {
	cmd.Execute()
}
