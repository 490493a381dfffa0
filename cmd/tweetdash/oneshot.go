package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tweetdash/internal/models"
	"tweetdash/internal/session"
)

// oneShot builds a session without the push channel for a single command.
func (c *cli) oneShot() *session.Dashboard {
	opts := session.OptionsFromConfig(c.cfg, c.contentClient(), nil, c.logger)
	opts.RealtimeURL = ""
	return session.New(opts)
}

func newGenerateCommand(c *cli) *cobra.Command {
	var (
		tone, length, category  string
		hashtags, emojis, image bool
	)
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a tweet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := models.GenerateOptions{Tone: tone, Length: length, Category: category}
			if cmd.Flags().Changed("hashtags") {
				opts.IncludeHashtags = models.Bool(hashtags)
			}
			if cmd.Flags().Changed("emojis") {
				opts.IncludeEmojis = models.Bool(emojis)
			}
			if cmd.Flags().Changed("image") {
				opts.GenerateImage = models.Bool(image)
			}
			d := c.oneShot()
			res, err := d.Create(cmd.Context(), args[0], opts)
			out := cmd.OutOrStdout()
			printNotifications(out, d)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, res.Item.Body)
			if res.Item.HasImage() {
				fmt.Fprintln(out, "image:", res.Item.ImageURL)
			}
			if res.Cached {
				fmt.Fprintln(out, "content id:", res.Item.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tone, "tone", "", "professional, casual, humorous, inspirational or informative")
	cmd.Flags().StringVar(&length, "length", "", "short, medium or long")
	cmd.Flags().StringVar(&category, "category", "", "content category")
	cmd.Flags().BoolVar(&hashtags, "hashtags", true, "include hashtags")
	cmd.Flags().BoolVar(&emojis, "emojis", true, "include emojis")
	cmd.Flags().BoolVar(&image, "image", true, "generate an image")
	return cmd
}

func newPublishCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <content-id>",
		Short: "Publish a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, args[0], (*session.Dashboard).Publish)
		},
	}
}

func newDeleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <content-id>",
		Short: "Delete content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, args[0], (*session.Dashboard).Delete)
		},
	}
}

// mutate loads current state, applies op and prints the outcome with the
// resulting counters.
func (c *cli) mutate(cmd *cobra.Command, rawID string, op func(*session.Dashboard, context.Context, int64) error) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid content id %q", rawID)
	}
	d := c.oneShot()
	if err := d.Refresh(cmd.Context()); err != nil {
		c.logger.Warnf("initial refresh failed: %v", err)
	}
	opErr := op(d, cmd.Context(), id)
	out := cmd.OutOrStdout()
	printNotifications(out, d)
	printCounters(out, d.Stats())
	return opErr
}

func newListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List content and counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := c.oneShot()
			if err := d.Refresh(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tIMAGE\tCREATED\tTWEET")
			for _, item := range d.Content() {
				status := "draft"
				if item.IsPublished {
					status = "published"
				}
				image := "-"
				if item.HasImage() {
					image = "yes"
				}
				created := "-"
				if !item.CreatedAt.IsZero() {
					created = item.CreatedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.ID, status, image, created, truncate(item.Body, 60))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printCounters(out, d.Stats())
			return nil
		},
	}
}

func printNotifications(w io.Writer, d *session.Dashboard) {
	for _, n := range d.Notifications() {
		fmt.Fprintf(w, "%s %s\n", n.Severity.Icon(), n.Message)
	}
}

func printCounters(w io.Writer, s models.StatSnapshot) {
	fmt.Fprintf(w, "total=%d published=%d drafts=%d images=%d engagement=%.1f%%\n",
		s.Total, s.Published, s.Drafts(), s.Images, s.EngagementRate)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
