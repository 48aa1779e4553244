package main

import (
	"github.com/masmgr/govcs/cmd"

	_ "github.com/masmgr/govcs/backends/gitcli"
	_ "github.com/masmgr/govcs/backends/gitrepo"
)

func main() {
	cmd.Run()
}
