package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"beadchat/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and clean up terminal sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.Open(filepath.Join(cfg.StateDir, "sessions.db"))
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println(dimStyle.Render("No stored sessions."))
			return nil
		}

		current := session.TerminalSessionID()
		for _, r := range records {
			marker := "  "
			if r.ID == current {
				marker = promptStyle.Render("* ")
			}
			fmt.Printf("%s%-20s %s/%s  %d turns  %s\n",
				marker, r.ID, r.Provider, r.Model, r.Turns,
				dimStyle.Render(r.UpdatedAt.Format("2006-01-02 15:04")))
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear [id]",
	Short: "Delete a session, or prune all dead ones",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.Open(filepath.Join(cfg.StateDir, "sessions.db"))
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println(dimStyle.Render("Deleted " + args[0]))
			return nil
		}

		pruned, err := store.PruneDead()
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d dead sessions.\n", pruned)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}
