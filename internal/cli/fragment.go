package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/groupie-tracker/internal/fragment"
	"github.com/pfrederiksen/groupie-tracker/internal/logger"
	"github.com/spf13/cobra"
)

var (
	flagPage         string
	flagFormat       string
	flagDiscardStale bool
	flagLink         string
	flagSet          []string
	flagClear        []string
)

func addFragmentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPage, "page", "/home", "Results page URL or path relative to the base URL")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, html or json")
	cmd.Flags().BoolVar(&flagDiscardStale, "discard-stale", false, "Drop responses older than the last applied one")
}

func newSortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Follow a sort link and print the updated results",
		RunE:  runSort,
	}
	addFragmentFlags(cmd)
	cmd.Flags().StringVar(&flagLink, "link", "", "Sort link text or href (required)")
	cmd.MarkFlagRequired("link")

	return cmd
}

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Submit the filter form and print the updated results",
		RunE:  runFilter,
	}
	addFragmentFlags(cmd)
	cmd.Flags().StringArrayVar(&flagSet, "set", nil, "Set a form field as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&flagClear, "clear", nil, "Uncheck a checkbox field by name (repeatable)")

	return cmd
}

// bindPage loads the results page and binds an updater to it
func bindPage(ctx context.Context, e *env) (*fragment.Page, error) {
	pageURL, err := e.cfg.ResolvePage(flagPage)
	if err != nil {
		return nil, err
	}
	doc, err := e.loadPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	opts := []fragment.Option{
		fragment.WithHTTPClient(e.client),
		fragment.WithSelector(e.cfg.Selector),
		fragment.WithUserAgent(e.cfg.UserAgent),
		fragment.WithLogger(e.log),
	}
	if flagDiscardStale || e.cfg.DiscardStale {
		opts = append(opts, fragment.WithDiscardStale())
	}

	page, err := fragment.NewUpdater(opts...).Bind(doc, pageURL)
	if err != nil {
		return nil, err
	}
	page.SetResultsPath(e.cfg.ResultsPath)
	return page, nil
}

func runSort(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat, FormatText, FormatHTML, FormatJSON)
	if err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.logMetrics()
	ctx := cmd.Context()

	page, err := bindPage(ctx, e)
	if err != nil {
		return err
	}
	defer page.Unbind()

	link, err := page.FindSortLink(flagLink)
	if err != nil {
		return err
	}
	href, _ := link.Attr("href")

	outcome, err := page.ClickSort(ctx, link)
	if err != nil {
		return fmt.Errorf("sorting: %w", err)
	}
	e.log.Debug("sort applied", logger.Fields{"href": href, "outcome": string(outcome)})

	return writeFragment(cmd, page, "sort", href, outcome, format)
}

func runFilter(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat, FormatText, FormatHTML, FormatJSON)
	if err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.logMetrics()
	ctx := cmd.Context()

	page, err := bindPage(ctx, e)
	if err != nil {
		return err
	}
	defer page.Unbind()

	form, err := page.FilterForm()
	if err != nil {
		return err
	}
	for _, name := range flagClear {
		fragment.ClearFormValue(form, name)
	}
	for _, kv := range flagSet {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid --set %q (must be name=value)", kv)
		}
		if err := fragment.SetFormValue(form, name, value); err != nil {
			return err
		}
	}

	target, err := page.FilterURL()
	if err != nil {
		return err
	}

	outcome, err := page.SubmitFilter(ctx)
	if err != nil {
		return fmt.Errorf("filtering: %w", err)
	}
	e.log.Debug("filter applied", logger.Fields{"url": target, "outcome": string(outcome)})

	return writeFragment(cmd, page, "filter", target, outcome, format)
}

func writeFragment(cmd *cobra.Command, page *fragment.Page, action, target string, outcome fragment.Outcome, format OutputFormat) error {
	html, err := page.Results().HTML()
	if err != nil {
		return fmt.Errorf("rendering results: %w", err)
	}

	out := &FragmentOutput{
		Action:  action,
		URL:     target,
		Outcome: outcome,
		HTML:    html,
		Items:   make([]string, 0),
	}
	page.Results().Selection().Children().Each(func(_ int, item *goquery.Selection) {
		if text := collapse(item.Text()); text != "" {
			out.Items = append(out.Items, text)
		}
	})
	if len(out.Items) == 0 {
		if text := collapse(page.Results().Text()); text != "" {
			out.Items = append(out.Items, text)
		}
	}
	if err := WriteFragmentOutput(cmd.OutOrStdout(), out, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
