package cmd

import (
	"fmt"
	"strings"

	"github.com/forgeline/assetgen/internal/config"
	"github.com/forgeline/assetgen/internal/session"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume an interrupted asset generation session",
	Long: `Resume a session from its last fully persisted iteration.

The session is located under the output base directory by its id. Fully
recorded iterations are never redone; a session whose generation already
finished only recomputes the best selections.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

var resumeNoDeploy bool

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().BoolVar(&resumeNoDeploy, "no-deploy", false, "do not deploy best assets into the project")
}

func runResume(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir, err := session.FindSessionByID(cfg.Paths.ResolveOutputBase(), sessionID)
	if err != nil {
		return err
	}

	store := session.NewStore(dir)
	sess, err := store.Load(sessionID)
	if err != nil {
		return err
	}

	log := buildLogger(cfg, store.Dir())
	defer log.Close()

	banner("Resuming session")
	keyValue("Session", sess.ID)
	keyValue("Project", sess.ProjectName)
	keyValue("Status", string(sess.Status))
	keyValue("Pending", strings.Join(sess.PendingAssetTypes(), ", "))
	fmt.Println()

	ctrl, err := buildController(cfg, store, log)
	if err != nil {
		return err
	}

	if err := runSweep(ctrl, sess); err != nil {
		return err
	}

	printBestSelections(sess)

	if cfg.Deploy.Auto && !resumeNoDeploy {
		fmt.Println()
		deployBest(sess, log)
	}

	fmt.Println()
	successf("Done. Session %s complete.", sess.ID)
	return nil
}
