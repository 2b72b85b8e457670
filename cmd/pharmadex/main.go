package main

import (
	"fmt"
	"os"

	"github.com/teranos/pharmadex/cmd/pharmadex/commands"
	"github.com/teranos/pharmadex/logger"
)

func main() {
	err := commands.Root().Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
