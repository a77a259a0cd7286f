package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Seyves/SnakesSsSs/pkg/config"
	"github.com/Seyves/SnakesSsSs/pkg/feed"
	"github.com/Seyves/SnakesSsSs/pkg/forum"
	"github.com/Seyves/SnakesSsSs/pkg/prefs"
)

var (
	configPath string
	sortFlag   string
	searchFlag string
	pagesFlag  int
	replyFlag  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newStore loads the config, bootstraps an anonymous session and returns the
// feed store over it. Bootstrap failure is fatal to the invocation; nothing
// else talks to the network before it succeeds.
func newStore(ctx context.Context) (*feed.Store, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	client := forum.New(cfg.ServerURL, cfg.Timeout())
	if _, err := client.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("acquiring session: %w", err)
	}

	return feed.NewStore(client), nil
}

func newPrefs() (*prefs.Store, error) {
	path, err := prefs.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolving preference path: %w", err)
	}
	return prefs.New(path, nil), nil
}

func parseID(arg, name string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a number: %q", name, arg)
	}
	return id, nil
}

func query() feed.Query {
	return feed.NewQuery(forum.SortType(sortFlag), searchFlag)
}

// drain fetches up to pagesFlag pages, stopping early when the collection
// ends. Further pages are only ever requested after the previous page
// resolved.
func drain(ctx context.Context, pager interface {
	More(context.Context) error
	HasMore() bool
}) error {
	for i := 0; i < pagesFlag && pager.HasMore(); i++ {
		if err := pager.More(ctx); err != nil {
			return err
		}
	}
	return nil
}

func printPost(p forum.Post) {
	fmt.Printf("#%d by %s at %s  [likes:%d comments:%d liked:%v]\n  %s\n",
		p.ID, p.Author, p.CreatedAt.Local().Format("2006-01-02 15:04"),
		p.LikesCount, p.CommentsCount, p.IsLiked, p.Content)
}

func printComment(c forum.Comment) {
	reply := ""
	if c.ReplyCommentID != nil {
		author := "unknown"
		if c.ReplyCommentAuthor != nil {
			author = *c.ReplyCommentAuthor
		}
		reply = fmt.Sprintf(" (reply to #%d by %s)", *c.ReplyCommentID, author)
	}
	fmt.Printf("#%d by %s at %s  [likes:%d liked:%v]%s\n  %s\n",
		c.ID, c.Author, c.CreatedAt.Local().Format("2006-01-02 15:04"),
		c.LikesCount, c.IsLiked, reply, c.Content)
}

var rootCmd = &cobra.Command{
	Use:   "snakesss",
	Short: "Anonymous forum client",
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the post feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}

		pager := store.PostFeed(query())
		if err := drain(cmd.Context(), pager); err != nil {
			return err
		}

		posts := pager.Items()
		if len(posts) == 0 {
			fmt.Println("no posts")
			return nil
		}
		for _, p := range posts {
			printPost(p)
		}
		if pager.HasMore() {
			fmt.Println("(more available, raise --pages)")
		}
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Create a post",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.CreatePost(cmd.Context(), strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Println("posted")
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <postId>",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "postId")
		if err != nil {
			return err
		}
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}
		return store.LikePost(cmd.Context(), id)
	},
}

var unlikeCmd = &cobra.Command{
	Use:   "unlike <postId>",
	Short: "Remove a like from a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "postId")
		if err != nil {
			return err
		}
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}
		return store.UnlikePost(cmd.Context(), id)
	},
}

var deletePostCmd = &cobra.Command{
	Use:   "delete-post <postId>",
	Short: "Delete one of your own posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "postId")
		if err != nil {
			return err
		}
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}
		return store.DeletePost(cmd.Context(), id)
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments <postId>",
	Short: "Show a post's comment thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := parseID(args[0], "postId")
		if err != nil {
			return err
		}
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}

		pager := store.CommentThread(postID, query())
		if err := drain(cmd.Context(), pager); err != nil {
			return err
		}

		comments := pager.Items()
		if len(comments) == 0 {
			fmt.Println("no comments")
			return nil
		}
		for _, c := range comments {
			printComment(c)
		}
		if pager.HasMore() {
			fmt.Println("(more available, raise --pages)")
		}
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <postId> <content>",
	Short: "Comment on a post, optionally as a reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := parseID(args[0], "postId")
		if err != nil {
			return err
		}
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}

		var replyTo *int
		if replyFlag > 0 {
			replyTo = &replyFlag
		}

		content := strings.Join(args[1:], " ")
		if err := store.CreateComment(cmd.Context(), postID, content, replyTo); err != nil {
			return err
		}
		fmt.Println("commented")
		return nil
	},
}

var likeCommentCmd = &cobra.Command{
	Use:   "like-comment <postId> <commentId>",
	Short: "Like a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentToggle(cmd, args, (*feed.Store).LikeComment)
	},
}

var unlikeCommentCmd = &cobra.Command{
	Use:   "unlike-comment <postId> <commentId>",
	Short: "Remove a like from a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentToggle(cmd, args, (*feed.Store).UnlikeComment)
	},
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete-comment <postId> <commentId>",
	Short: "Delete one of your own comments",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentToggle(cmd, args, (*feed.Store).DeleteComment)
	},
}

func runCommentToggle(cmd *cobra.Command, args []string, op func(*feed.Store, context.Context, int, int) error) error {
	postID, err := parseID(args[0], "postId")
	if err != nil {
		return err
	}
	commentID, err := parseID(args[1], "commentId")
	if err != nil {
		return err
	}
	store, err := newStore(cmd.Context())
	if err != nil {
		return err
	}
	return op(store, cmd.Context(), postID, commentID)
}

var replyOfCmd = &cobra.Command{
	Use:   "reply-of <commentId>",
	Short: "Resolve the comment a reply points at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "commentId")
		if err != nil {
			return err
		}
		store, err := newStore(cmd.Context())
		if err != nil {
			return err
		}

		comment, err := store.Comment(cmd.Context(), id)
		if forum.IsNotFound(err) {
			fmt.Println("comment no longer exists")
			return nil
		}
		if err != nil {
			return err
		}
		printComment(*comment)
		return nil
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage local preferences",
}

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark]",
	Short: "Show or set the theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newPrefs()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			fmt.Println(store.Theme())
			return nil
		}

		theme := prefs.Theme(args[0])
		if theme != prefs.ThemeLight && theme != prefs.ThemeDark {
			return fmt.Errorf("unknown theme %q, want light or dark", args[0])
		}
		return store.SetTheme(theme)
	},
}

var animationsCmd = &cobra.Command{
	Use:   "animations [on|off]",
	Short: "Show or set the animation flag",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newPrefs()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			if store.Animations() {
				fmt.Println("on")
			} else {
				fmt.Println("off")
			}
			return nil
		}

		switch args[0] {
		case "on":
			return store.SetAnimations(true)
		case "off":
			return store.SetAnimations(false)
		default:
			return fmt.Errorf("unknown value %q, want on or off", args[0])
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file.")

	for _, cmd := range []*cobra.Command{feedCmd, commentsCmd} {
		cmd.Flags().StringVar(&sortFlag, "sort", "dateasc", "Sort order: dateasc, datedesc, topasc.")
		cmd.Flags().StringVar(&searchFlag, "search", "", "Filter by search term.")
		cmd.Flags().IntVar(&pagesFlag, "pages", 1, "Number of pages to fetch.")
	}
	commentCmd.Flags().IntVar(&replyFlag, "reply", 0, "Comment id this comment replies to.")

	prefsCmd.AddCommand(themeCmd, animationsCmd)
	rootCmd.AddCommand(
		feedCmd, postCmd, likeCmd, unlikeCmd, deletePostCmd,
		commentsCmd, commentCmd, likeCommentCmd, unlikeCommentCmd, deleteCommentCmd,
		replyOfCmd, prefsCmd,
	)
}
