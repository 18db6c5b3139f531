/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/config"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/client"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/spf13/cobra"
)

var (
	clientName     string
	clientEmail    string
	clientPassword string
	clientText     string
	clientImage    string
	clientSearch   string
)

// clientCmd represents the client command
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Talks to a ConnectSphere server",
	Long: `Command line client for a ConnectSphere server. The session token is
kept in CONNECTSPHERE_TOKEN_FILE between invocations. Usage:

	connectsphere client login --email ada@example.com --password secret
	connectsphere client feed --search golang
	connectsphere client post --text "Hello" --image ./photo.png
`,
}

var clientSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		container, err := newContainer(ctx, false)
		if err != nil {
			return err
		}
		if err := container.Signup(ctx, clientName, clientEmail, clientPassword); err != nil {
			return describe(err)
		}
		user, _ := container.User()
		fmt.Fprintf(cmd.OutOrStdout(), "Signed up as %s <%s>\n", user.Name, user.Email)
		return nil
	},
}

var clientLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and show the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		container, err := newContainer(ctx, false)
		if err != nil {
			return err
		}
		if err := container.Login(ctx, clientEmail, clientPassword); err != nil {
			return describe(err)
		}
		user, _ := container.User()
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n\n", user.Name, user.Email)
		printPosts(cmd.OutOrStdout(), container.VisiblePosts(), user.ID)
		return nil
	},
}

var clientLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := newContainer(commandContext(cmd), false)
		if err != nil {
			return err
		}
		if err := container.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var clientWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := newContainer(commandContext(cmd), true)
		if err != nil {
			return err
		}
		user, ok := container.User()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
		return nil
	},
}

var clientFeedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the feed, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := newContainer(commandContext(cmd), true)
		if err != nil {
			return err
		}
		if container.Phase() != client.LoggedIn {
			return errors.New("log in to see the feed")
		}
		container.SetSearch(clientSearch)
		if query := container.Search(); query != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Posts matching %q\n\n", query)
		}
		user, _ := container.User()
		printPosts(cmd.OutOrStdout(), container.VisiblePosts(), user.ID)
		return nil
	},
}

var clientPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish a post",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		container, err := newContainer(ctx, true)
		if err != nil {
			return err
		}

		var image *client.Image
		if clientImage != "" {
			data, err := os.ReadFile(clientImage)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			image = &client.Image{Filename: clientImage, Data: data}
		}

		post, err := container.CreatePost(ctx, clientText, image)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", post.ID)
		return nil
	},
}

var clientEditCmd = &cobra.Command{
	Use:   "edit <postId>",
	Short: "Edit one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		container, err := newContainer(ctx, true)
		if err != nil {
			return err
		}
		post, err := container.UpdatePost(ctx, args[0], clientText)
		if err != nil {
			return describe(err)
		}
		user, _ := container.User()
		printPosts(cmd.OutOrStdout(), []types.PostView{post}, user.ID)
		return nil
	},
}

var clientDeleteCmd = &cobra.Command{
	Use:   "delete <postId>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		container, err := newContainer(ctx, true)
		if err != nil {
			return err
		}
		if err := container.DeletePost(ctx, args[0]); err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var clientLikeCmd = &cobra.Command{
	Use:   "like <postId>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		container, err := newContainer(ctx, true)
		if err != nil {
			return err
		}
		post, err := container.ToggleLike(ctx, args[0])
		if err != nil {
			return describe(err)
		}
		user, _ := container.User()
		printPosts(cmd.OutOrStdout(), []types.PostView{post}, user.ID)
		return nil
	},
}

var clientProfileCmd = &cobra.Command{
	Use:   "profile <userId>",
	Short: "Show a member and their posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		container, err := newContainer(ctx, true)
		if err != nil {
			return err
		}
		profile, err := container.Profile(ctx, args[0])
		if err != nil {
			return describe(err)
		}
		if !profile.Found {
			fmt.Fprintln(cmd.OutOrStdout(), "User not found")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>, member since %s\n\n",
			profile.User.Name, profile.User.Email, profile.User.CreatedAt.Format("Jan 2006"))
		me, _ := container.User()
		printPosts(cmd.OutOrStdout(), profile.Posts, me.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(
		clientSignupCmd,
		clientLoginCmd,
		clientLogoutCmd,
		clientWhoamiCmd,
		clientFeedCmd,
		clientPostCmd,
		clientEditCmd,
		clientDeleteCmd,
		clientLikeCmd,
		clientProfileCmd,
	)

	clientSignupCmd.Flags().StringVar(&clientName, "name", "", "display name")
	clientSignupCmd.Flags().StringVar(&clientEmail, "email", "", "email address")
	clientSignupCmd.Flags().StringVar(&clientPassword, "password", "", "password")
	_ = clientSignupCmd.MarkFlagRequired("name")
	_ = clientSignupCmd.MarkFlagRequired("email")
	_ = clientSignupCmd.MarkFlagRequired("password")

	clientLoginCmd.Flags().StringVar(&clientEmail, "email", "", "email address")
	clientLoginCmd.Flags().StringVar(&clientPassword, "password", "", "password")
	_ = clientLoginCmd.MarkFlagRequired("email")
	_ = clientLoginCmd.MarkFlagRequired("password")

	clientFeedCmd.Flags().StringVar(&clientSearch, "search", "", "only show posts containing this text")

	clientPostCmd.Flags().StringVar(&clientText, "text", "", "post text")
	clientPostCmd.Flags().StringVar(&clientImage, "image", "", "path to a jpg or png image")
	_ = clientPostCmd.MarkFlagRequired("text")

	clientEditCmd.Flags().StringVar(&clientText, "text", "", "new post text")
}

// newContainer builds a container over the configured server and token
// file. With resume set, the stored session is restored first.
func newContainer(ctx context.Context, resume bool) (*client.Container, error) {
	cfg := config.LoadConfig()
	container := client.NewContainer(
		client.NewAPI(cfg.Client.APIBaseURL),
		client.NewFileTokenStore(cfg.Client.TokenFile),
	)
	if !resume {
		return container, nil
	}
	if err := container.Initialize(ctx); err != nil {
		return nil, describe(err)
	}
	return container, nil
}

// describe turns a client error into a message for the terminal.
func describe(err error) error {
	switch {
	case errors.Is(err, client.ErrAuthentication):
		return fmt.Errorf("not logged in or session expired: %w", err)
	case errors.Is(err, client.ErrAuthorization):
		return fmt.Errorf("not allowed: %w", err)
	case errors.Is(err, client.ErrNotFound):
		return fmt.Errorf("not found: %w", err)
	case errors.Is(err, client.ErrConflict):
		return fmt.Errorf("already exists: %w", err)
	case errors.Is(err, client.ErrValidation):
		return fmt.Errorf("invalid input: %w", err)
	case errors.Is(err, client.ErrTransport):
		return fmt.Errorf("server unavailable, please retry: %w", err)
	default:
		return err
	}
}

func printPosts(w io.Writer, posts []types.PostView, viewerID string) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts")
		return
	}
	for _, post := range posts {
		liked := ""
		if viewerID != "" && post.LikedBy(viewerID) {
			liked = " (liked)"
		}
		fmt.Fprintf(w, "%s  %s  %s\n", post.ID, post.UserName, post.CreatedAt.Local().Format(time.RFC822))
		for _, line := range strings.Split(post.Text, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
		if post.ImageURL != "" {
			fmt.Fprintf(w, "    [image] %s\n", post.ImageURL)
		}
		fmt.Fprintf(w, "    %d likes%s\n\n", len(post.Likes), liked)
	}
}
