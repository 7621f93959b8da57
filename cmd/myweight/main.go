package main

import (
	"os"

	"myweight/internal/commands"
)

func main() {
	os.Exit(commands.Execute())
}
