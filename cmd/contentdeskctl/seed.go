package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contentdesk/contentdesk/internal/model"
)

func init() {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the store with a demo workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := openRepositories()
			if err != nil {
				return err
			}
			ctx := context.Background()

			owner, err := repos.Users.Create(ctx, &model.User{
				Email: "demo-owner@contentdesk.dev",
				Name:  "Demo Owner",
			})
			if err != nil {
				return fmt.Errorf("seed owner: %w", err)
			}
			editor, err := repos.Users.Create(ctx, &model.User{
				Email: "demo-editor@contentdesk.dev",
				Name:  "Demo Editor",
			})
			if err != nil {
				return fmt.Errorf("seed editor: %w", err)
			}

			customer, err := repos.Customers.Create(ctx, &model.Customer{
				Name:        "Acme Coffee Roasters",
				OwnerUserID: owner.ID,
				Industry:    "food-and-beverage",
				AIContext:   map[string]any{"tone": "warm", "audience": "coffee enthusiasts"},
			})
			if err != nil {
				return fmt.Errorf("seed customer: %w", err)
			}
			if err := repos.Customers.SetPermission(ctx, customer.ID, editor.ID, model.RoleEditor); err != nil {
				return fmt.Errorf("seed permission: %w", err)
			}

			project, err := repos.Projects.Create(ctx, &model.Project{
				Name:       "Autumn Launch",
				CustomerID: customer.ID,
				Objective:  "Announce the autumn roast lineup",
			})
			if err != nil {
				return fmt.Errorf("seed project: %w", err)
			}

			conv, err := repos.Conversations.Create(ctx, &model.Conversation{
				ProjectID: project.ID,
				Title:     "Kickoff brainstorm",
			})
			if err != nil {
				return fmt.Errorf("seed conversation: %w", err)
			}
			if _, err := repos.Conversations.AddMessage(ctx, conv.ID, model.Message{
				Role:    model.MessageRoleUser,
				Content: "Draft three post ideas for the autumn roast launch.",
			}); err != nil {
				return fmt.Errorf("seed message: %w", err)
			}

			post, err := repos.Posts.Create(ctx, &model.Post{
				ProjectID:      project.ID,
				TargetPlatform: "instagram",
				PostType:       "carousel",
				ContentPieces:  []string{"Autumn is here.", "Meet our new single-origin roast."},
			})
			if err != nil {
				return fmt.Errorf("seed post: %w", err)
			}
			if err := repos.Conversations.AddPost(ctx, conv.ID, post.ID); err != nil {
				return fmt.Errorf("seed post link: %w", err)
			}

			fmt.Fprintf(os.Stdout, "seeded: owner=%s editor=%s customer=%s project=%s conversation=%s post=%s\n",
				owner.ID, editor.ID, customer.ID, project.ID, conv.ID, post.ID)
			return nil
		},
	}
	rootCmd.AddCommand(seedCmd)
}
