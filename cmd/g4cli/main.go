package main

import (
	"github.com/robotalks/g4link/pkg/cli/sh"
	"github.com/robotalks/g4link/pkg/env"

	_ "github.com/robotalks/g4link/pkg/cli/cmds/device"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
