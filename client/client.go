package main

import (
	"bufio"
	"chat-rooms/domain/event"
	"chat-rooms/ws"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	Username  string `env:"CHAT_USERNAME,required=true"`
	UserID    string `env:"CHAT_USER_ID"`
	Room      string `env:"CHAT_ROOM,default=general"`
	Token     string `env:"CHAT_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the websocket lifecycle: connect, join, then pump stdin
// lines out as messages while a reader goroutine prints incoming events.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if config.UserID == "" {
		config.UserID = uuid.NewString()
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect, carrying the token as a query parameter when present.
	target, err := url.Parse(config.ServerURL)
	if err != nil {
		return exitConfig, fmt.Errorf("invalid server url: %w", err)
	}
	if config.Token != "" {
		query := target.Query()
		query.Set("token", config.Token)
		target.RawQuery = query.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer conn.Close()
	log.Info("Connected", "server", config.ServerURL, "room", config.Room)

	// 4. Join the configured room.
	if err := send(conn, ws.EventJoinRoom, ws.JoinRoomPayload{
		Username: config.Username,
		UserID:   config.UserID,
		Room:     config.Room,
	}); err != nil {
		return exitRuntime, err
	}

	// 5. Print server events until the connection dies.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			printEvent(frame)
		}
	}()

	// 6. Forward stdin lines; /leave and /quit are client commands.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case <-done:
			return exitRuntime, fmt.Errorf("connection closed by server")
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return exitOK, nil
			}
			if line == "/leave" {
				if err := send(conn, ws.EventLeaveRoom, config.Room); err != nil {
					return exitRuntime, err
				}
				continue
			}
			if err := send(conn, ws.EventSendMessage, ws.SendMessagePayload{
				Message: line,
				Room:    config.Room,
			}); err != nil {
				return exitRuntime, err
			}
		}
	}
}

func send(conn *websocket.Conn, eventName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(ws.Envelope{Event: eventName, Data: data})
}

// printEvent renders one server frame for the terminal.
func printEvent(frame []byte) {
	var envelope ws.Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return
	}

	switch envelope.Event {
	case "newMessage":
		var message event.MessagePosted
		if json.Unmarshal(envelope.Data, &message) == nil {
			fmt.Printf("%s %s\n", color.Cyan.Sprintf("%s:", message.Username), message.Text)
		}
	case "loadHistory":
		var history []event.MessageView
		if json.Unmarshal(envelope.Data, &history) == nil {
			for _, message := range history {
				fmt.Printf("%s %s %s\n",
					color.Gray.Sprint(message.CreatedAt.Local().Format("15:04")),
					color.Cyan.Sprintf("%s:", message.Username), message.Text)
			}
		}
	case "joinedRoom":
		var joined event.RoomJoined
		if json.Unmarshal(envelope.Data, &joined) == nil {
			color.Green.Printf("-- joined %s --\n", joined.Room)
		}
	case "userJoined":
		var user event.UserJoined
		if json.Unmarshal(envelope.Data, &user) == nil {
			color.Yellow.Printf("-- %s joined --\n", user.Username)
		}
	case "userLeft":
		var user event.UserLeft
		if json.Unmarshal(envelope.Data, &user) == nil {
			color.Yellow.Printf("-- %s left --\n", user.Username)
		}
	case "chatError":
		var chatErr event.ChatError
		if json.Unmarshal(envelope.Data, &chatErr) == nil {
			color.Red.Printf("error [%s]: %s\n", chatErr.Reason, chatErr.Message)
		}
	}
}
