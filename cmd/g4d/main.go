package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/robotalks/g4link/pkg/env"
)

func init() {
	env.SetupFlags()
	env.SetupDaemonFlags()
}

func main() {
	flag.Parse()
	env.NewConfig().MustNewEnv().RunOrFail()
}
