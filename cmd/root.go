package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "searchd"}

	root.AddCommand(serveCMD(), migrateCMD(), reindexCMD())
	_ = root.Execute()
}
