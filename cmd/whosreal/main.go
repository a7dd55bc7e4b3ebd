package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/example/whosreal/internal/config"
)

const releaseVersion = "0.1.0"

func main() {
	log.SetFlags(0)
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
