package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/applications"
	"github.com/samkraft/samkraft-api/internal/filtering"
	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/projects"
	"github.com/samkraft/samkraft-api/internal/store"
)

const (
	PromptYes                  = "Yes"
	PromptNo                   = "No"
	PromptBack                 = "back"
	PromptReportByMunicipality = "Report by municipality"
	PromptManualApply          = "Apply to projects in manual mode"

	maxTitleLength = 60
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptManualApply, PromptReportByMunicipality, PromptNo},
}

var matchCmd = &cobra.Command{
	Use:   "match <username>",
	Short: "Rank projects for a user and optionally apply to them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	registerMatchFlags(matchCmd)
}

func registerMatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "only projects of this category")
	cmd.Flags().String("municipality", "", "only projects in this municipality")
	cmd.Flags().StringSlice("skills", nil, "only projects requiring one of these skills")
	cmd.Flags().String("sort", "", "best_match (default), newest or popular")
	cmd.Flags().String("skill-mode", "", "strict or lenient")
	cmd.Flags().Bool("exclude-full", false, "hide projects without free places")
	cmd.Flags().IntP("limit", "l", 10, "number of projects to show, 0 shows all")
	cmd.Flags().BoolP("no-prompt", "n", false, "print the ranking and exit")
}

func match(cmd *cobra.Command, username string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	var (
		s        store.Store
		svc      *projects.Service
		recorder *applications.Recorder
	)
	app := fx.New(
		fx.NopLogger,
		fx.Supply(config, logger),
		coreModule,
		fx.Populate(&s, &svc, &recorder),
	)
	if err := app.Err(); err != nil {
		logger.Fatal("wiring services", zap.Error(err))
	}

	user, err := s.GetProfileByUsername(ctx, username)
	if err != nil {
		logger.Fatal("getting the user", zap.Error(err), zap.String("username", username))
	}

	req, err := matchRequest(cmd)
	if err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}

	ranked, err := svc.Matches(ctx, user, req)
	if err != nil {
		logger.Fatal("ranking projects", zap.Error(err))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if len(ranked) == 0 {
		logger.Info("exiting", zap.String("reason", "no matching projects found"))
		return
	}

	for i, r := range ranked {
		logger.Info("match",
			zap.Int("rank", i+1),
			zap.Int("score", r.MatchScore),
			zap.String("project_id", r.Project.ID),
			zap.String("title", r.Project.Title),
			zap.String("municipality", r.Project.Municipality),
			zap.Int("free_places", r.Project.Capacity()),
		)
	}

	if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		ranked, err = handleAction(ctx, action, recorder, logger, user, ranked)
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func matchRequest(cmd *cobra.Command) (projects.MatchRequest, error) {
	flags := cmd.Flags()
	category, _ := flags.GetString("category")
	municipality, _ := flags.GetString("municipality")
	skills, _ := flags.GetStringSlice("skills")
	rawSort, _ := flags.GetString("sort")
	rawMode, _ := flags.GetString("skill-mode")

	sort, err := filtering.ParseSortPolicy(rawSort)
	if err != nil {
		return projects.MatchRequest{}, err
	}

	req := projects.MatchRequest{Spec: filtering.Spec{
		Municipality: municipality,
		Category:     category,
		Skills:       skills,
		Sort:         sort,
	}}
	if rawMode != "" {
		if req.Spec.SkillMode, err = filtering.ParseSkillMode(rawMode); err != nil {
			return projects.MatchRequest{}, err
		}
	}
	if flags.Changed("exclude-full") {
		excludeFull, _ := flags.GetBool("exclude-full")
		req.ExcludeFull = &excludeFull
	}
	return req, nil
}

func handleAction(ctx context.Context, action string, recorder *applications.Recorder, logger *zap.Logger, user models.Profile, ranked []filtering.Scored) ([]filtering.Scored, error) {
	switch action {
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return ranked, errExit
	case PromptManualApply:
		return manualApply(ctx, recorder, logger, user, ranked)
	case PromptReportByMunicipality:
		pretty, _ := json.MarshalIndent(reportByMunicipality(ranked), "", "  ")
		logger.Info(string(pretty), zap.Int("projects count", len(ranked)))
		return ranked, nil
	default:
		return ranked, fmt.Errorf("invalid action: %s", action)
	}
}

func manualApply(ctx context.Context, recorder *applications.Recorder, logger *zap.Logger, user models.Profile, ranked []filtering.Scored) ([]filtering.Scored, error) {
	for {
		if len(ranked) == 0 {
			return ranked, nil
		}

		items := make([]string, 0, len(ranked)+1)
		for _, r := range ranked {
			items = append(items, projectLabel(r))
		}

		projectPrompt := promptui.Select{
			Label: "Choose a project and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := projectPrompt.Run()
		if err != nil {
			return ranked, err
		}
		if selected == PromptBack {
			return ranked, nil
		}

		projectID := strings.Split(selected, " ")[0]
		participant, err := recorder.Apply(ctx, projectID, user.ID, string(user.Role))
		if err != nil {
			if errors.Is(err, applications.ErrDuplicateApplication) {
				logger.Warn("already applied to project", zap.String("project_id", projectID))
				ranked = withoutProject(ranked, projectID)
				continue
			}
			return ranked, err
		}

		logger.Info("successfully applied to project",
			zap.String("project_id", projectID),
			zap.String("application_id", participant.ID),
		)
		ranked = withoutProject(ranked, projectID)
	}
}

func projectLabel(r filtering.Scored) string {
	return fmt.Sprintf("%s %s / %s / score %d",
		r.Project.ID, logger.TruncateForLog(r.Project.Title, maxTitleLength), r.Project.Municipality, r.MatchScore,
	)
}

func reportByMunicipality(ranked []filtering.Scored) map[string]int {
	report := make(map[string]int)
	for _, r := range ranked {
		name := r.Project.Municipality
		if name == "" {
			name = "unknown"
		}
		report[name]++
	}
	return report
}

func withoutProject(ranked []filtering.Scored, id string) []filtering.Scored {
	out := make([]filtering.Scored, 0, len(ranked))
	for _, r := range ranked {
		if r.Project.ID != id {
			out = append(out, r)
		}
	}
	return out
}
