package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
	"github.com/quillblog/internal/view"
)

func (a *App) runPosts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: posts requires a subcommand (ls, show, create, edit, publish, unpublish, rm)", errUsage)
	}
	switch args[0] {
	case "ls", "list":
		return a.cmdPostsList(ctx, args[1:])
	case "show":
		return a.cmdPostsShow(ctx, args[1:])
	case "create":
		return a.cmdPostsCreate(ctx, args[1:])
	case "edit":
		return a.cmdPostsEdit(ctx, args[1:])
	case "publish":
		return a.cmdPostsPublish(ctx, args[1:], true)
	case "unpublish":
		return a.cmdPostsPublish(ctx, args[1:], false)
	case "rm", "delete":
		return a.cmdPostsRemove(ctx, args[1:])
	default:
		return fmt.Errorf("%w: unknown posts subcommand %q", errUsage, args[0])
	}
}

func (a *App) cmdPostsList(ctx context.Context, args []string) error {
	fs := newFlagSet("posts ls")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", a.cfg.PageSize, "posts per page")
	search := fs.String("search", "", "title search")
	category := fs.String("category", "", "category slug")
	all := fs.Bool("all", false, "include drafts")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	publishedOnly := !*all
	result, err := a.session.ListPosts(ctx, service.ListPostsInput{
		Page:          page,
		Limit:         limit,
		Search:        *search,
		Category:      *category,
		PublishedOnly: &publishedOnly,
	})
	if err != nil {
		return err
	}

	if len(result.Items) == 0 {
		fprintln(a.out, "no posts")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fprintln(tw, "ID\tSTATUS\tDATE\tSLUG\tTITLE")
	for _, p := range result.Items {
		fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, postStatus(p), postDate(p), p.Slug, p.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fprintf(a.out, "page %d of %d (%d posts)\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func (a *App) cmdPostsShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: posts show <slug>", errUsage)
	}
	post, err := a.session.Client().GetPostBySlug(ctx, args[0])
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %q not found", args[0])
	}

	fprintf(a.out, "%s\n\n", post.Title)
	fprintf(a.out, "id:         %s\n", post.ID)
	fprintf(a.out, "slug:       %s\n", post.Slug)
	fprintf(a.out, "author:     %s\n", post.AuthorName)
	fprintf(a.out, "status:     %s\n", postStatus(*post))
	fprintf(a.out, "date:       %s\n", postDate(*post))
	if len(post.Categories) > 0 {
		names := make([]string, 0, len(post.Categories))
		for _, c := range post.Categories {
			names = append(names, c.Name)
		}
		fprintf(a.out, "categories: %s\n", strings.Join(names, ", "))
	}
	fprintf(a.out, "\n%s\n", post.Content)
	return nil
}

func (a *App) cmdPostsCreate(ctx context.Context, args []string) error {
	fs := newFlagSet("posts create")
	title := fs.StringP("title", "t", "", "post title")
	author := fs.StringP("author", "a", "", "author name")
	content := fs.StringP("content", "c", "", "markdown content")
	publish := fs.Bool("publish", false, "publish immediately")
	categories := fs.StringArray("category", nil, "category id (repeatable)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	post, err := a.session.CreatePost(ctx, service.CreatePostInput{
		Title:       *title,
		Content:     *content,
		AuthorName:  *author,
		Published:   *publish,
		CategoryIDs: *categories,
	})
	if err != nil {
		return err
	}
	fprintf(a.out, "created %s (%s) %s\n", post.Slug, post.ID, postStatus(*post))
	return nil
}

// cmdPostsEdit 只提交显式给出的字段
func (a *App) cmdPostsEdit(ctx context.Context, args []string) error {
	fs := newFlagSet("posts edit")
	title := fs.StringP("title", "t", "", "new title")
	author := fs.StringP("author", "a", "", "new author name")
	content := fs.StringP("content", "c", "", "new markdown content")
	contentFile := fs.StringP("content-file", "f", "", "read markdown content from a file")
	categories := fs.StringArray("category", nil, "category id, replaces the current set (repeatable)")
	clearCategories := fs.Bool("clear-categories", false, "remove every category")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: posts edit <id> [flags]", errUsage)
	}
	if fs.Changed("content") && fs.Changed("content-file") {
		return fmt.Errorf("%w: --content and --content-file are mutually exclusive", errUsage)
	}
	if fs.Changed("category") && *clearCategories {
		return fmt.Errorf("%w: --category and --clear-categories are mutually exclusive", errUsage)
	}

	input := service.UpdatePostInput{ID: fs.Arg(0)}
	if fs.Changed("title") {
		input.Title = title
	}
	if fs.Changed("author") {
		input.AuthorName = author
	}
	if fs.Changed("content") {
		input.Content = content
	}
	if fs.Changed("content-file") {
		data, err := os.ReadFile(*contentFile)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		text := string(data)
		input.Content = &text
	}
	switch {
	case fs.Changed("category"):
		input.CategoryIDs = *categories
	case *clearCategories:
		input.CategoryIDs = []string{}
	}
	if input.Title == nil && input.AuthorName == nil && input.Content == nil && input.CategoryIDs == nil {
		return fmt.Errorf("%w: posts edit: nothing to change", errUsage)
	}

	post, err := a.session.UpdatePost(ctx, input)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %s not found", input.ID)
	}
	fprintf(a.out, "updated %s (%s)\n", post.Slug, post.ID)
	return nil
}

func (a *App) cmdPostsPublish(ctx context.Context, args []string, published bool) error {
	if len(args) != 1 {
		verb := "publish"
		if !published {
			verb = "unpublish"
		}
		return fmt.Errorf("%w: posts %s <id>", errUsage, verb)
	}
	post, err := a.session.TogglePublish(ctx, args[0], published)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %s not found", args[0])
	}
	fprintf(a.out, "%s is now %s\n", post.Slug, postStatus(*post))
	return nil
}

func (a *App) cmdPostsRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: posts rm <id>", errUsage)
	}
	post, err := a.session.DeletePost(ctx, args[0])
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %s not found", args[0])
	}
	fprintf(a.out, "deleted %s\n", post.Slug)
	return nil
}

func postStatus(p db.Post) string {
	if p.Published {
		return "published"
	}
	return "draft"
}

func postDate(p db.Post) string {
	if p.PublishedAt != nil {
		return view.FormatDate(p.PublishedAt)
	}
	return view.FormatDate(&p.CreatedAt)
}
