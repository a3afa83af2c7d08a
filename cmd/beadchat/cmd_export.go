package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"beadchat/internal/export"
	"beadchat/internal/session"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a stored conversation transcript",
	Long: `Export writes a conversation transcript to disk. With no argument it
exports the current terminal's session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.Open(filepath.Join(cfg.StateDir, "sessions.db"))
		if err != nil {
			return err
		}
		defer store.Close()

		id := session.TerminalSessionID()
		if len(args) == 1 {
			id = args[0]
		}

		conv, found, err := store.Load(id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no session %q", id)
		}

		written, err := export.WriteFile(conv, export.ParseFormat(exportFormat), exportOut)
		if err != nil {
			return err
		}
		fmt.Println("Exported to " + written)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Transcript format: markdown or json")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: timestamped file)")
}
