package cmd

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "mevscan",
	Short: "A tool for detecting and classifying MEV trade clusters on pooled AMMs",
}
