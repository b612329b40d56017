package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags)
	cobra.CheckErr(newCmd().Execute())
}
