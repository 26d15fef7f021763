package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pixelgen/internal/pixelart"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List hardware tiers and aspect ratios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printProfiles(cmd.OutOrStdout())
		},
	}
}

func printProfiles(w io.Writer) error {
	var b strings.Builder
	for _, p := range pixelart.Profiles() {
		marker := " "
		if p.Tier == pixelart.DefaultTier {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d  %-18s %s\n      %s\n", marker, p.Tier, p.Label, p.Name, p.Description)
	}
	b.WriteString("\naspect ratios:")
	for _, o := range pixelart.AspectOptions() {
		b.WriteString(" " + o.Key)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
