package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"beadchat/internal/provider"
)

const modelListTimeout = 15 * time.Second

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models across configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), modelListTimeout)
		defer cancel()

		printModelListing(provider.ListAllModels(ctx, providerOptions(cfg)))
		return nil
	},
}

func printModelListing(listing map[string][]string) {
	if len(listing) == 0 {
		fmt.Println(dimStyle.Render("No providers reachable."))
		return
	}
	names := make([]string, 0, len(listing))
	for name := range listing {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Println(headerStyle.Render(name))
		for _, model := range listing[name] {
			fmt.Println("  " + model)
		}
	}
}
