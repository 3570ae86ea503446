// cmd/article.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linguara-ai/linguara-cli/internal/api"
)

var (
	articleListLanguage string
	articleListLevel    string
	articleListStatus   string
	articleListLimit    int
)

// articleCmd groups article subcommands
var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "List and read generated articles",
}

var articleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your articles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		articles, err := client.ListArticles(cmd.Context(), api.ListArticlesOptions{
			Language: articleListLanguage,
			Level:    articleListLevel,
			Status:   articleListStatus,
			Limit:    articleListLimit,
		})
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("No articles yet. Try 'linguara generate'.")
			return nil
		}

		for _, a := range articles {
			status := string(a.Status)
			switch a.Status {
			case api.ArticleCompleted:
				status = color.GreenString(status)
			case api.ArticleFailed:
				status = color.RedString(status)
			case api.ArticleRunning:
				status = color.CyanString(status)
			}
			fmt.Printf("%s  %-10s %-4s %-9s %s\n",
				a.ID, a.Language, a.Level, status, a.Topic)
		}
		return nil
	},
}

var articleShowCmd = &cobra.Command{
	Use:   "show <article-id>",
	Short: "Show an article's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		article, err := client.GetArticle(cmd.Context(), args[0])
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("article %s not found", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("ID:       %s\n", article.ID)
		fmt.Printf("Topic:    %s\n", article.Topic)
		fmt.Printf("Language: %s (%s)\n", article.Language, article.Level)
		fmt.Printf("Length:   %s words\n", article.Length)
		fmt.Printf("Status:   %s\n", article.Status)
		fmt.Printf("Created:  %s\n", article.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		if article.JobID != "" {
			fmt.Printf("Job:      %s\n", article.JobID)
		}
		return nil
	},
}

var articleReadCmd = &cobra.Command{
	Use:   "read <article-id>",
	Short: "Print an article's text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		article, err := client.GetArticle(cmd.Context(), args[0])
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("article %s not found", args[0])
		}
		if err != nil {
			return err
		}
		if article.Status != api.ArticleCompleted {
			return fmt.Errorf("article %s is %s; nothing to read yet", article.ID, article.Status)
		}

		content, err := client.GetArticleContent(cmd.Context(), article.ID)
		if err != nil {
			return err
		}

		printArticle(article, content)
		return nil
	},
}

func init() {
	articleListCmd.Flags().StringVar(&articleListLanguage, "language", "", "Filter by language")
	articleListCmd.Flags().StringVar(&articleListLevel, "level", "", "Filter by CEFR level")
	articleListCmd.Flags().StringVar(&articleListStatus, "status", "", "Filter by status")
	articleListCmd.Flags().IntVar(&articleListLimit, "limit", 20, "Maximum articles to list")

	articleCmd.AddCommand(articleListCmd)
	articleCmd.AddCommand(articleShowCmd)
	articleCmd.AddCommand(articleReadCmd)
	rootCmd.AddCommand(articleCmd)
}
