package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
	"langquiz-service/internal/logger"
)

const (
	seedCreatorEmail = "creator@example.com"
	seedLearnerEmail = "learner@example.com"
	seedContentTitle = "En el mercado"
)

// NewSeedCmd loads demo accounts and one published quiz. Running it again
// leaves existing rows alone.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo accounts and content",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.Postgres.URL != "" {
				if err := runMigrationsWithConfig(cmd.Context(), cfg, log); err != nil {
					return err
				}
			}
			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()
			return seed(cmd.Context(), b.store, log)
		},
	}
}

func seed(ctx context.Context, store app.Store, log *logger.Logger) error {
	accounts := app.NewAccountService(store)
	learners := app.NewLearnerService(store, nil)
	creators := app.NewCreatorService(store, nil, log)

	creator, err := ensureUser(ctx, accounts, seedCreatorEmail, domain.RoleCreator)
	if err != nil {
		return err
	}
	learner, err := ensureUser(ctx, accounts, seedLearnerEmail, domain.RoleLearner)
	if err != nil {
		return err
	}
	if _, err := learners.GetProfile(ctx, learner.ID); errors.Is(err, domain.ErrProfileNotFound) {
		if _, err := learners.SaveProfile(ctx, learner.ID, domain.LanguageSpanish, domain.LevelA2); err != nil {
			return fmt.Errorf("seed profile: %w", err)
		}
	} else if err != nil {
		return err
	}

	items, err := creators.ListContent(ctx, creator.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Title == seedContentTitle {
			log.Info("seed content already present", "content_id", item.ID)
			return nil
		}
	}

	content, err := creators.CreateContent(ctx, creator.ID, app.NewContent{
		Language:     domain.LanguageSpanish,
		Level:        domain.LevelA2,
		Title:        seedContentTitle,
		Caption:      "Comprando fruta en un mercado de Madrid",
		VideoURL:     "https://cdn.example.com/videos/mercado.mp4",
		ThumbnailURL: "https://cdn.example.com/thumbs/mercado.jpg",
	})
	if err != nil {
		return fmt.Errorf("seed content: %w", err)
	}
	_, err = creators.ReplaceQuiz(ctx, creator.ID, content.ID, []app.NewQuestion{
		{Prompt: "¿Qué compra la mujer?", Options: []string{"Manzanas", "Naranjas", "Pan"}, CorrectOptionIndex: 1},
		{Prompt: "¿Cuánto cuesta el kilo?", Options: []string{"Dos euros", "Tres euros"}, CorrectOptionIndex: 0},
		{Prompt: "¿Dónde está el mercado?", Options: []string{"Madrid", "Sevilla", "Valencia", "Bilbao"}, CorrectOptionIndex: 0},
	})
	if err != nil {
		return fmt.Errorf("seed quiz: %w", err)
	}
	if _, err := creators.Publish(ctx, creator.ID, content.ID); err != nil {
		return fmt.Errorf("seed publish: %w", err)
	}
	log.Info("seed complete", "creator_id", creator.ID, "learner_id", learner.ID, "content_id", content.ID)
	return nil
}

func ensureUser(ctx context.Context, accounts *app.AccountService, email string, role domain.Role) (domain.User, error) {
	user, err := accounts.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}
	return accounts.CreateUser(ctx, email, role)
}
