package main

import (
	"os"

	"github.com/uwbmrb/SAS/cmd/sas/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
