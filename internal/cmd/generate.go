package cmd

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/forgeline/assetgen/internal/analyzer"
	"github.com/forgeline/assetgen/internal/config"
	"github.com/forgeline/assetgen/internal/session"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a full asset generation sweep for a project",
	Long: `Analyze a project, then generate, evaluate, and select assets for it.

The project directory is inspected to detect the platform, app name, and
visual style. After confirmation, each requested asset type goes through
an iterate-generate-evaluate sweep and the best variant is selected.

All state is persisted after every iteration; an interrupted run can be
resumed with 'assetgen resume <session-id>'.`,
	RunE: runGenerate,
}

var (
	generateProject    string
	generateOutput     string
	generateIterations int
	generateVariants   int
	generateAssetTypes []string
	generateYes        bool
	generateNoDeploy   bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateProject, "project", "p", ".", "project directory to analyze")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output base directory (default from config)")
	generateCmd.Flags().IntVarP(&generateIterations, "iterations", "i", 0, "iterations per asset type (default from config)")
	generateCmd.Flags().IntVarP(&generateVariants, "variants", "v", 0, "variants per iteration (default from config)")
	generateCmd.Flags().StringSliceVar(&generateAssetTypes, "asset-types", nil, "asset types to generate (default: suggested for platform)")
	generateCmd.Flags().BoolVarP(&generateYes, "yes", "y", false, "skip the confirmation prompt")
	generateCmd.Flags().BoolVar(&generateNoDeploy, "no-deploy", false, "do not deploy best assets into the project")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	projectPath, err := filepath.Abs(generateProject)
	if err != nil {
		return fmt.Errorf("invalid project path: %w", err)
	}

	report, err := analyzer.New(projectPath).Analyze()
	if err != nil {
		return err
	}

	assetTypes := generateAssetTypes
	if len(assetTypes) == 0 {
		assetTypes = report.SuggestedAssets
	}

	settings := session.Settings{
		Iterations: cfg.Generation.Iterations,
		Variants:   cfg.Generation.Variants,
	}
	if generateIterations > 0 {
		settings.Iterations = generateIterations
	}
	if generateVariants > 0 {
		settings.Variants = generateVariants
	}
	settings = settings.Clamp()

	profile := report.StyleProfile()

	banner("Project analysis")
	keyValue("Project", report.AppName)
	keyValue("Platform", report.Platform)
	if report.PackageID != "" {
		keyValue("Package", report.PackageID)
	}
	keyValue("Category", report.Category)
	keyValue("Colors", strings.Join(profile.Colors, ", "))
	keyValue("Aesthetic", profile.Aesthetic)
	keyValue("Asset types", strings.Join(assetTypes, ", "))
	keyValue("Sweep", fmt.Sprintf("%d iterations x %d variants", settings.Iterations, settings.Variants))
	fmt.Println()

	if generateYes {
		// An explicit --yes counts as user confirmation of the analysis.
		profile.Certainty = analyzer.CertaintyTier(analyzer.Confirm(report.Certainty))
	} else {
		confirmed, edited, err := confirmProfile(cmd, profile)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
		profile = edited
		profile.Certainty = analyzer.CertaintyTier(analyzer.Confirm(report.Certainty))
	}

	outputBase := generateOutput
	if outputBase == "" {
		outputBase = cfg.Paths.ResolveOutputBase()
	}

	projectName := sanitizeProjectName(report.AppName)
	store := session.NewStore(filepath.Join(outputBase, projectName))

	sess, err := store.Create(projectName, projectPath, assetTypes, profile, settings)
	if err != nil {
		return err
	}

	log := buildLogger(cfg, store.Dir())
	defer log.Close()

	keyValue("Session", sess.ID)
	keyValue("Output", store.Dir())
	fmt.Println()

	ctrl, err := buildController(cfg, store, log)
	if err != nil {
		return err
	}

	if err := runSweep(ctrl, sess); err != nil {
		return err
	}

	printBestSelections(sess)

	if cfg.Deploy.Auto && !generateNoDeploy {
		fmt.Println()
		deployBest(sess, log)
	}

	fmt.Println()
	successf("Done. Session %s complete.", sess.ID)
	return nil
}

// confirmProfile runs the line-oriented [Y/n/edit] confirmation. "edit"
// lets the user override the fields the analysis inferred.
func confirmProfile(cmd *cobra.Command, profile session.StyleProfile) (bool, session.StyleProfile, error) {
	reader := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Print("Proceed with this profile? [Y/n/edit] ")
		if !reader.Scan() {
			// EOF on stdin counts as acceptance; supports piped usage.
			return true, profile, reader.Err()
		}

		switch strings.ToLower(strings.TrimSpace(reader.Text())) {
		case "", "y", "yes":
			return true, profile, nil
		case "n", "no":
			return false, profile, nil
		case "e", "edit":
			return true, editProfile(reader, profile), nil
		default:
			fmt.Println("Please answer y, n, or edit.")
		}
	}
}

// editProfile prompts for overrides, keeping the current value on empty
// input.
func editProfile(reader *bufio.Scanner, profile session.StyleProfile) session.StyleProfile {
	prompt := func(label, current string) string {
		fmt.Printf("%s [%s]: ", label, current)
		if !reader.Scan() {
			return current
		}
		if text := strings.TrimSpace(reader.Text()); text != "" {
			return text
		}
		return current
	}

	profile.AppName = prompt("App name", profile.AppName)
	profile.Aesthetic = prompt("Aesthetic", profile.Aesthetic)
	profile.Iconography = prompt("Iconography", profile.Iconography)

	colors := prompt("Colors (comma separated)", strings.Join(profile.Colors, ", "))
	var edited []string
	for _, c := range strings.Split(colors, ",") {
		if c = strings.TrimSpace(c); c != "" {
			edited = append(edited, c)
		}
	}
	profile.Colors = edited

	profile.Description = prompt("Description", profile.Description)
	return profile
}
