package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pixelgen",
		Short:         "Turn photos into retro pixel art with Gemini",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newStylizeCmd(), newProfilesCmd())
	return root
}
