package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedran77/dmcore/internal/auth"
	"github.com/vedran77/dmcore/internal/config"
	"github.com/vedran77/dmcore/internal/database"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository"
	"github.com/vedran77/dmcore/internal/retention"
	"github.com/vedran77/dmcore/internal/service"
	"github.com/vedran77/dmcore/pkg/validator"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(cfg.DSN()); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Purge all conversations now",
		Long:  "Purges every conversation and resets the retention window. With --check it only purges when the window has elapsed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageBackend == config.BackendMemory {
				return fmt.Errorf("sweep needs a persistent backend, set STORAGE_BACKEND=%s", config.BackendPostgres)
			}
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			convService := service.NewConversationService(b.dms, service.NewRepoDirectory(b.contacts))
			scheduler := retention.NewScheduler(b.retention, b.dms, convService, retention.Config{
				Window:   cfg.RetentionWindow,
				Interval: cfg.RetentionInterval,
			})

			if checkOnly {
				swept, err := scheduler.Check(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("retention window elapsed: %t\n", swept)
				return nil
			}
			res, err := scheduler.Sweep(ctx)
			fmt.Printf("purged %d conversations, %d failed\n", res.Purged, res.Failed)
			return err
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "only sweep if the retention window has elapsed")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Issue an access token for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token, err := auth.NewTokens(cfg.JWTSecret).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	return cmd
}

func newNoticeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notice <conversation-id> <text>",
		Short: "Post a system notice into a conversation",
		Long:  "Posts a system message visible to both participants. It does not count as unread. Connected clients pick it up on their next fetch.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageBackend == config.BackendMemory {
				return fmt.Errorf("notice needs a persistent backend, set STORAGE_BACKEND=%s", config.BackendPostgres)
			}
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			msg, err := postNotice(ctx, b.dms, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("notice %s posted to %s\n", msg.ID, msg.ConversationID)
			return nil
		},
	}
}

func postNotice(ctx context.Context, dms repository.DMRepository, conversationID, text string) (*domain.Message, error) {
	return service.NewMessageService(dms).PostSystemMessage(ctx, conversationID, text)
}

func newContactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage directory contacts",
	}

	var in struct {
		owner, name, phone, role string
	}
	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Add or update a contact in an owner's directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.ValidateEmail(in.owner); err != nil {
				return fmt.Errorf("--owner: %w", err)
			}
			if err := validator.ValidateEmail(args[0]); err != nil {
				return fmt.Errorf("contact: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageBackend == config.BackendMemory {
				return fmt.Errorf("contact add needs a persistent backend, use DIRECTORY_SEED with the memory backend")
			}
			return addContact(cmd.Context(), cfg, in.owner, domain.Contact{
				DisplayName: in.name,
				Email:       args[0],
				Phone:       in.phone,
				Role:        in.role,
			})
		},
	}
	add.Flags().StringVar(&in.owner, "owner", "", "identity whose directory is updated (required)")
	add.Flags().StringVar(&in.name, "name", "", "display name")
	add.Flags().StringVar(&in.phone, "phone", "", "phone number")
	add.Flags().StringVar(&in.role, "role", "", "role or title")
	add.MarkFlagRequired("owner")

	cmd.AddCommand(add)
	return cmd
}

func addContact(ctx context.Context, cfg *config.Config, owner string, contact domain.Contact) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	if err := service.NewRepoDirectory(b.contacts).AddContact(ctx, owner, contact); err != nil {
		return err
	}
	fmt.Printf("%s added to %s's directory\n", contact.Email, owner)
	return nil
}
