package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vedran77/dmcore/internal/client"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/timeline"
	"github.com/vedran77/dmcore/internal/transport/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dmcore-client",
		Short:         "Terminal client for dmcore direct messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "server base URL")
	rootCmd.PersistentFlags().String("token", "", "access token issued by dmcore token")
	rootCmd.PersistentFlags().String("me", "", "your email identity")
	viper.SetEnvPrefix("dmcore")
	viper.AutomaticEnv()
	for _, name := range []string{"server", "token", "me"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	rootCmd.AddCommand(newListCmd(), newChatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAPI() (*client.Client, error) {
	token := viper.GetString("token")
	if token == "" {
		return nil, fmt.Errorf("a token is required (--token or DMCORE_TOKEN)")
	}
	return client.New(viper.GetString("server"), token), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPI()
			if err != nil {
				return err
			}
			views, err := api.ListConversations(cmd.Context())
			if err != nil {
				return err
			}
			me := domain.CanonicalIdentity(viper.GetString("me"))
			for _, v := range views {
				unread := ""
				if n := v.UnreadBy[me]; n > 0 {
					unread = fmt.Sprintf(" (%d unread)", n)
				}
				fmt.Printf("%-28s %s%s\n  %s\n", v.Counterpart.DisplayName, v.Counterpart.Email, unread, v.LastMessagePreview)
			}
			return nil
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <email>",
		Short: "Open a conversation and chat interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me := viper.GetString("me")
			if me == "" {
				return fmt.Errorf("--me is required for chat")
			}
			api, err := newAPI()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return chat(ctx, api, me, args[0])
		},
	}
}

func chat(ctx context.Context, api *client.Client, me, other string) error {
	conv, err := api.StartConversation(ctx, other)
	if err != nil {
		return err
	}
	session := client.NewSession(api, me, conv)
	if err := session.Load(ctx); err != nil {
		return err
	}

	stream, err := api.Connect(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()
	if err := stream.Subscribe(ctx, conv.ID); err != nil {
		return err
	}

	names := map[string]string{
		domain.CanonicalIdentity(me): "Me",
		conv.Counterpart.Email:       conv.Counterpart.DisplayName,
	}
	fmt.Printf("Chatting with %s <%s>. Commands: /read, /retry <id>, /quit\n", conv.Counterpart.DisplayName, conv.Counterpart.Email)
	for _, e := range session.Entries() {
		printEntry(names, e)
	}
	fmt.Print("> ")

	go func() {
		for {
			evt, err := stream.Next(ctx)
			if err != nil {
				if ctx.Err() == nil {
					fmt.Printf("\r[connection closed: %v]\n", err)
				}
				return
			}
			printEvent(session, names, evt)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return nil
			}
			runLine(ctx, session, line)
			fmt.Print("> ")
		}
	}
}

func runLine(ctx context.Context, session *client.Session, line string) {
	switch {
	case line == "":
	case line == "/read":
		n, err := session.MarkRead(ctx)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			return
		}
		fmt.Printf("[%d marked read]\n", n)
	case strings.HasPrefix(line, "/retry "):
		if err := session.Retry(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/retry "))); err != nil {
			fmt.Printf("[ERROR] %v\n", err)
		}
	case strings.HasPrefix(line, "/"):
		fmt.Println("[ERROR] unknown command")
	default:
		if clientID, err := session.Send(ctx, line); err != nil {
			fmt.Printf("[ERROR] not sent (%v), /retry %s\n", err, clientID)
		}
	}
}

func printEvent(session *client.Session, names map[string]string, evt *ws.Event) {
	changed, err := session.Handle(evt)
	if err != nil || !changed {
		return
	}
	switch evt.Type {
	case ws.EventTypeMessageNew, ws.EventTypeMessageEdited:
		var p ws.MessagePayload
		// Own messages were echoed when typed.
		if json.Unmarshal(evt.Payload, &p) != nil || names[p.SenderID] == "Me" {
			return
		}
		fmt.Print("\r")
		printEntry(names, timeline.Entry{Message: p.Message, State: timeline.StateConfirmed})
	case ws.EventTypeConversationDeleted:
		fmt.Print("\r[conversation deleted]\n")
	default:
		return
	}
	fmt.Print("> ")
}

func printEntry(names map[string]string, e timeline.Entry) {
	m := e.Message
	who := names[m.SenderID]
	switch {
	case m.IsSystem:
		who = "SYSTEM"
	case who == "":
		who = m.SenderID
	}
	at := m.CreatedAt
	if m.SentAt != nil {
		at = *m.SentAt
	}
	state := ""
	if e.State != timeline.StateConfirmed {
		state = " [" + string(e.State) + "]"
	}
	fmt.Printf("[%s] [%s]: %s%s\n", at.Local().Format(time.TimeOnly), who, m.PreviewText(), state)
}
