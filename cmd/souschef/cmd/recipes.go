package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/constants"

	"github.com/spf13/cobra"
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Recipe commands",
}

var (
	recipeTagFilter        string
	recipeIngredientFilter string
)

var listRecipesCmd = &cobra.Command{
	Use:   "list",
	Short: "List your recipes",
	Long:  `List your recipes, optionally filtered by tag or ingredient IDs`,
	Example: fmt.Sprintf(`  - %s recipes list
  - %s recipes list --tags 20240101-120000-000001
  - %s recipes list --ingredients 20240101-120000-000002,20240101-120000-000003`,
		constants.ProjectName, constants.ProjectName, constants.ProjectName),
	Run: runListRecipes,
}

func init() {
	listRecipesCmd.Flags().StringVar(&recipeTagFilter, "tags", "", "Comma-separated tag IDs to filter by")
	listRecipesCmd.Flags().StringVar(&recipeIngredientFilter, "ingredients", "", "Comma-separated ingredient IDs to filter by")
	recipesCmd.AddCommand(listRecipesCmd)
	rootCmd.AddCommand(recipesCmd)
}

func runListRecipes(cmd *cobra.Command, _ []string) {
	executeWithClient(cmd, func(ctx context.Context, c api.Interface) error {
		service := NewRecipesService(c, NewOutputWrapper())
		return service.ListRecipes(ctx, recipeTagFilter, recipeIngredientFilter)
	})
}

// RecipesService handles recipe listing logic.
type RecipesService struct {
	client api.Interface
	output OutputInterface
}

// NewRecipesService creates a new RecipesService with the provided dependencies.
func NewRecipesService(apiClient api.Interface, outputter OutputInterface) *RecipesService {
	return &RecipesService{
		client: apiClient,
		output: outputter,
	}
}

// ListRecipes lists the caller's recipes and displays them in a table format.
func (s *RecipesService) ListRecipes(ctx context.Context, tagIDs, ingredientIDs string) error {
	s.output.Info("Listing recipes…")

	resp, err := s.client.ListRecipes(ctx, tagIDs, ingredientIDs)
	if err != nil {
		return fmt.Errorf("failed to list recipes: %w", err)
	}

	if len(resp.Recipes) == 0 {
		s.output.Blank()
		s.output.Warning("No recipes found")
		return nil
	}

	rows := s.formatRecipes(resp.Recipes)

	s.output.Blank()
	s.output.Table(
		[]string{
			"ID",
			"Title",
			"Time",
			"Price",
			"Tags",
			"Created (UTC)",
		},
		rows,
	)
	s.output.Blank()
	s.output.Success("Recipes listed successfully")
	return nil
}

// formatRecipes formats recipe data into table rows.
func (s *RecipesService) formatRecipes(recipes []*api.Recipe) [][]string {
	rows := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		rows = append(rows, []string{
			r.ID,
			s.output.Bold(r.Title),
			fmt.Sprintf("%d min", r.TimeMinutes),
			r.Price,
			strconv.Itoa(len(r.TagIDs)),
			r.CreatedAt.UTC().Format(time.DateTime),
		})
	}
	return rows
}
