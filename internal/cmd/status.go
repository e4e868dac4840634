package cmd

import (
	"fmt"

	"github.com/forgeline/assetgen/internal/config"
	"github.com/forgeline/assetgen/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show the progress of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir, err := session.FindSessionByID(cfg.Paths.ResolveOutputBase(), sessionID)
	if err != nil {
		return err
	}

	sess, err := session.NewStore(dir).Load(sessionID)
	if err != nil {
		return err
	}

	banner("Session status")
	keyValue("Session", sess.ID)
	keyValue("Project", sess.ProjectName)
	keyValue("Status", string(sess.Status))
	keyValue("Created", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	keyValue("Updated", sess.UpdatedAt.Format("2006-01-02 15:04:05"))
	keyValue("Sweep", fmt.Sprintf("%d iterations x %d variants", sess.Settings.Iterations, sess.Settings.Variants))
	fmt.Println()

	for _, assetType := range sess.AssetTypes {
		done := sess.CompletedIterations(assetType)
		line := fmt.Sprintf("  %-18s %d/%d iterations", assetType, done, sess.Settings.Iterations)
		if best, ok := sess.Best[assetType]; ok {
			line += scoreStyle.Render(fmt.Sprintf("  best: %s (%.2f)", best.Filename, best.Score))
		}
		fmt.Println(line)
	}

	if sess.Status != session.StatusComplete {
		fmt.Println()
		fmt.Printf("Resume with: assetgen resume %s\n", sess.ID)
	}
	return nil
}
