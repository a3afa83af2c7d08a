package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"beadchat/internal/bead"
)

var beadCmd = &cobra.Command{
	Use:   "bead",
	Short: "Manage the personality bead library",
}

var beadListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List beads, optionally filtered by category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library := bead.NewLibrary(cfg.Beads.Paths...)
		category := bead.Category("")
		if len(args) > 0 {
			category = bead.Category(args[0])
		}

		beads := library.List(category)
		if len(beads) == 0 {
			fmt.Println(dimStyle.Render("No beads found."))
			return nil
		}
		for _, b := range beads {
			fmt.Printf("%s  %-12s prio %3d  %s\n", beadPill(b), b.Category, b.Priority, dimStyle.Render(b.Name))
		}
		for _, w := range library.Warnings() {
			fmt.Println(dimStyle.Render("warning: " + w))
		}
		return nil
	},
}

var beadShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a bead's full definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library := bead.NewLibrary(cfg.Beads.Paths...)
		b, ok := library.Get(args[0])
		if !ok {
			return fmt.Errorf("no bead named %q", args[0])
		}

		fmt.Println(beadPill(b) + "  " + b.Name)
		fmt.Printf("category: %s   priority: %d   override: %s   version: %s\n",
			b.Category, b.Priority, b.Override, b.Version)
		if len(b.Tags) > 0 {
			fmt.Printf("tags: %s\n", strings.Join(b.Tags, ", "))
		}
		if b.Description != "" {
			fmt.Println(dimStyle.Render(b.Description))
		}
		fmt.Println()
		fmt.Println(b.Body)
		return nil
	},
}

var beadSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search beads by id, tag, name, or category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library := bead.NewLibrary(cfg.Beads.Paths...)
		results := library.Search(args[0])
		if len(results) == 0 {
			fmt.Println(dimStyle.Render("No matches."))
			return nil
		}
		for _, b := range results {
			fmt.Printf("%s  %s\n", beadPill(b), dimStyle.Render(b.Name))
		}
		return nil
	},
}

var beadCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a bead interactively and save it to the user layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		library := bead.NewLibrary(cfg.Beads.Paths...)
		reader := bufio.NewReader(os.Stdin)

		prompt := func(label string) string {
			fmt.Print(promptStyle.Render(label+":") + " ")
			line, _ := reader.ReadString('\n')
			return strings.TrimSpace(line)
		}

		fields := bead.Fields{
			ID:       prompt("id (lowercase, hyphens)"),
			Name:     prompt("name"),
			Category: prompt("category (base, communication, domain, behavior, modifier)"),
			Override: prompt("override (append, prepend, replace) [append]"),
		}
		if raw := prompt("priority [category default]"); raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("priority must be a number: %w", err)
			}
			fields.Priority = &p
		}
		if raw := prompt("tags (comma separated)"); raw != "" {
			for _, tag := range strings.Split(raw, ",") {
				fields.Tags = append(fields.Tags, strings.TrimSpace(tag))
			}
		}
		fields.Description = prompt("description")

		fmt.Println(promptStyle.Render("body (end with a line containing only '.'):"))
		var body []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				break
			}
			line = strings.TrimRight(line, "\n")
			if line == "." {
				break
			}
			body = append(body, line)
		}
		fields.Body = strings.Join(body, "\n")

		b, err := bead.Build(fields)
		if err != nil {
			return err
		}
		if err := library.Save(b); err != nil {
			return err
		}
		fmt.Printf("Saved %s to %s\n", beadPill(b), library.UserPath())
		return nil
	},
}

func init() {
	beadCmd.AddCommand(beadListCmd)
	beadCmd.AddCommand(beadShowCmd)
	beadCmd.AddCommand(beadSearchCmd)
	beadCmd.AddCommand(beadCreateCmd)
}
