package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/quillblog/internal/service"
)

func (a *App) runCategories(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: categories requires a subcommand (ls, create, edit, rm)", errUsage)
	}
	switch args[0] {
	case "ls", "list":
		return a.cmdCategoriesList(ctx, args[1:])
	case "create":
		return a.cmdCategoriesCreate(ctx, args[1:])
	case "edit":
		return a.cmdCategoriesEdit(ctx, args[1:])
	case "rm", "delete":
		return a.cmdCategoriesRemove(ctx, args[1:])
	default:
		return fmt.Errorf("%w: unknown categories subcommand %q", errUsage, args[0])
	}
}

func (a *App) cmdCategoriesList(ctx context.Context, args []string) error {
	fs := newFlagSet("categories ls")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", a.cfg.PageSize, "categories per page")
	search := fs.String("search", "", "name search")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	result, err := a.session.Client().ListCategories(ctx, service.ListCategoriesInput{
		Page: page, Limit: limit, Search: *search,
	})
	if err != nil {
		return err
	}
	if len(result.Items) == 0 {
		fprintln(a.out, "no categories")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fprintln(tw, "ID\tSLUG\tNAME")
	for _, c := range result.Items {
		fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Slug, c.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fprintf(a.out, "page %d of %d (%d categories)\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func (a *App) cmdCategoriesCreate(ctx context.Context, args []string) error {
	fs := newFlagSet("categories create")
	name := fs.StringP("name", "n", "", "category name")
	description := fs.StringP("description", "d", "", "description")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	input := service.CreateCategoryInput{Name: *name}
	if fs.Changed("description") {
		input.Description = description
	}
	category, err := a.session.Client().CreateCategory(ctx, input)
	if err != nil {
		return err
	}
	// post lists embed category summaries
	a.session.Cache().Invalidate("post.")
	fprintf(a.out, "created %s (%s)\n", category.Slug, category.ID)
	return nil
}

func (a *App) cmdCategoriesEdit(ctx context.Context, args []string) error {
	fs := newFlagSet("categories edit")
	name := fs.StringP("name", "n", "", "new name")
	description := fs.StringP("description", "d", "", "new description, empty clears it")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: categories edit <id> [-n NAME] [-d DESCRIPTION]", errUsage)
	}

	input := service.UpdateCategoryInput{ID: fs.Arg(0)}
	if fs.Changed("name") {
		input.Name = name
	}
	if fs.Changed("description") {
		input.Description = description
	}
	if input.Name == nil && input.Description == nil {
		return fmt.Errorf("%w: categories edit: nothing to change", errUsage)
	}

	category, err := a.session.Client().UpdateCategory(ctx, input)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("category %s not found", input.ID)
	}
	a.session.Cache().Invalidate("post.")
	fprintf(a.out, "updated %s (%s)\n", category.Slug, category.ID)
	return nil
}

func (a *App) cmdCategoriesRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: categories rm <id>", errUsage)
	}
	category, err := a.session.Client().DeleteCategory(ctx, args[0])
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("category %s not found", args[0])
	}
	a.session.Cache().Invalidate("post.")
	fprintf(a.out, "deleted %s\n", category.Slug)
	return nil
}
