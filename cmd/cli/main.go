package main

import (
	"fmt"
	"os"

	"github.com/good-deeds/board/cmd/cli/auth"
	"github.com/good-deeds/board/cmd/cli/board"
	"github.com/good-deeds/board/cmd/cli/markers"
	"github.com/good-deeds/board/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	markers.InitMarkers(rootCmd)
	board.InitBoard(rootCmd)

	// Execute the root Cobra command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
