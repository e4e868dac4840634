package cmd

import (
	"fmt"

	"github.com/forgeline/assetgen/internal/config"
	"github.com/forgeline/assetgen/internal/session"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List all sessions under the output directory",
	RunE:  runSessionsList,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	outputBase := cfg.Paths.ResolveOutputBase()
	sessions, err := session.ListSessions(outputBase)
	if err != nil {
		return err
	}

	banner("Sessions")
	keyValue("Output base", outputBase)
	fmt.Println()

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		fmt.Println("Run 'assetgen generate' to create one.")
		return nil
	}

	for _, sess := range sessions {
		marker := warnStyle.Render("in progress")
		if sess.Status == session.StatusComplete {
			marker = successStyle.Render("complete")
		}
		fmt.Printf("  %s  %s\n", sess.ID, marker)
		fmt.Printf("    %d asset types, %d selected, created %s\n",
			len(sess.AssetTypes), len(sess.Best), sess.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
