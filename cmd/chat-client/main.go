package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/chat"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/config"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/realtime"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/rest"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/session"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/store"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/jwt"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, App: "chat-client"})
	l := log.L()

	if len(os.Args) > 1 && os.Args[1] == "login" {
		if err := login(cfg.Session.File, os.Args[2:]); err != nil {
			l.Fatal().Err(err).Msg("login failed")
		}
		return
	}

	sess, err := session.Load(cfg.Session.File)
	if err != nil {
		l.Fatal().Err(err).Msg("no usable session, run: chat-client login <token>")
	}
	if err := sess.Eligible(time.Now()); err != nil {
		l.Fatal().Err(err).Msg("stored session is not usable, log in again")
	}

	st := store.New()
	rc := rest.NewClient(rest.Config{
		BaseURL: cfg.Backend.APIBaseURL,
		Token:   sess.Token,
		Timeout: cfg.Backend.HTTPTimeout,
	})
	ad := realtime.NewAdapter(realtime.Config{
		URL:               cfg.Backend.WSURL,
		ReconnectAttempts: cfg.WebSocket.ReconnectAttempts,
		ReconnectInterval: cfg.WebSocket.ReconnectInterval,
		PingInterval:      cfg.WebSocket.PingInterval,
		PongWait:          cfg.WebSocket.PongWait,
		WriteWait:         cfg.WebSocket.WriteWait,
		AckTimeout:        cfg.WebSocket.AckTimeout,
		MaxMessageSize:    cfg.WebSocket.MaxMessageSize,
	}, sess.UserID(), sess.Token, st)
	ad.OnStatus(func(s realtime.Status) {
		ev := l.Info()
		if s.Err != nil {
			ev = l.Warn().Err(s.Err)
		}
		ev.Str("state", string(s.State)).Int(log.FieldAttempt, s.Attempt).Msg("connection state")
	})

	client := chat.NewClient(sess, st, rc, ad)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Start(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to start chat client")
	}
	defer client.Stop()

	l.Info().Int64(log.FieldUserID, sess.UserID()).Str(log.FieldUsername, sess.User.Username).Msg("chat client started")

	go client.Watch(ctx, func(rooms []domain.ConversationRoom) {
		if n := client.Store().UnreadBadge(); n > 0 {
			fmt.Printf("\n[%d unread across %d conversations] > ", n, len(rooms))
		}
	})
	go repl(ctx, client, stop)

	<-ctx.Done()
	l.Info().Msg("shutting down")
}

func login(sessionFile string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: chat-client login <token>")
	}
	token := args[0]

	claims, err := jwt.Parse(token)
	if err != nil {
		return err
	}
	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("token has no numeric user id: %w", err)
	}

	sess := &session.Session{
		Token: token,
		User: domain.UserSummary{
			ID:       userID,
			Username: claims.Username,
			Email:    claims.Email,
			Role:     claims.Role,
		},
	}
	if err := session.Save(sessionFile, sess); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (id %d)\n", claims.Username, userID)
	return nil
}

func repl(ctx context.Context, client *chat.Client, stop func()) {
	scanner := bufio.NewScanner(os.Stdin)
	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			prompt()
			continue
		}

		cmd, args, _ := strings.Cut(line, " ")
		switch cmd {
		case "rooms":
			printRooms(client.Rooms())
		case "open":
			id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
			if err != nil {
				fmt.Println("usage: open <counterpart-id>")
				break
			}
			client.OpenRoom(id)
			if room, ok := client.Room(id); ok {
				printRoom(room)
			}
		case "send":
			idStr, text, _ := strings.Cut(strings.TrimSpace(args), " ")
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				fmt.Println("usage: send <counterpart-id> <text>")
				break
			}
			if err := client.SendDirect(ctx, id, text); err != nil {
				fmt.Println("send failed:", err)
			}
		case "class":
			classID := strings.TrimSpace(args)
			if classID == "" {
				fmt.Println("usage: class <class-id>")
				break
			}
			if err := client.SelectClass(ctx, classID); err != nil {
				fmt.Println("join failed:", err)
				break
			}
			printGroup(client, classID)
		case "gsend":
			idStr, text, _ := strings.Cut(strings.TrimSpace(args), " ")
			if idStr == "" || text == "" {
				fmt.Println("usage: gsend <class-id> <text>")
				break
			}
			if err := client.SendGroup(ctx, idStr, text); err != nil {
				fmt.Println("send failed, draft kept:", err)
			}
		case "who":
			classID := strings.TrimSpace(args)
			for _, u := range client.Store().RoomUsers(classID) {
				fmt.Println(" -", u)
			}
		case "leave":
			client.LeaveClass()
		case "badge":
			fmt.Println("unread:", client.Store().UnreadBadge())
		case "quit", "exit":
			stop()
			return
		default:
			fmt.Println("commands: rooms, open, send, class, gsend, who, leave, badge, quit")
		}
		prompt()
	}
}

func prompt() { fmt.Print("> ") }

func printRooms(rooms []domain.ConversationRoom) {
	if len(rooms) == 0 {
		fmt.Println("no conversations yet")
		return
	}
	for _, room := range rooms {
		unread := ""
		if room.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", room.UnreadCount)
		}
		fmt.Printf(" [%d] %s, %s%s\n", room.ID, room.Counterpart.Name, room.Counterpart.Role, unread)
	}
}

func printRoom(room domain.ConversationRoom) {
	for _, msg := range room.Messages {
		who := room.Counterpart.Name
		if msg.Role == domain.RoleSelf {
			who = "me"
		}
		pending := ""
		if msg.ID == 0 {
			pending = " (sending)"
		}
		fmt.Printf(" %s %s: %s%s\n", msg.Timestamp.Format("15:04"), who, msg.Content, pending)
		if msg.ReferenceLink != "" {
			fmt.Println("   link:", msg.ReferenceLink)
		}
	}
}

func printGroup(client *chat.Client, classID string) {
	if header, ok := client.ClassHeader(classID); ok {
		fmt.Printf(" %s %s (%s)\n", header.ClassCode, header.ClassName, header.Semester)
	}
	for _, msg := range client.Store().GroupMessages(classID) {
		fmt.Printf(" %s %s: %s\n", msg.CreatedAt.Format("15:04"), msg.Sender.DisplayName(), msg.MessageText)
	}
}
