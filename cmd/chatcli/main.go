package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"literary-character-ai/backend/internal/service"
	"literary-character-ai/backend/internal/ws"

	"github.com/gorilla/websocket"
)

func main() {
	baseURL := flag.String("base", "http://localhost:8081", "server base URL")
	email := flag.String("email", os.Getenv("CHAT_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("CHAT_PASSWORD"), "account password")
	characterID := flag.Uint("character", 0, "character to chat with")
	list := flag.Bool("list", false, "list characters and exit")
	tag := flag.String("tag", "", "only list characters with this tag")
	fresh := flag.Bool("new", false, "start a new conversation")
	flag.Parse()

	if *email == "" || *password == "" || (!*list && *characterID == 0) {
		fmt.Println("Chat client usage:")
		fmt.Println("  -email, -password   account credentials (or CHAT_EMAIL / CHAT_PASSWORD)")
		fmt.Println("  -list [-tag t]      list characters")
		fmt.Println("  -character id       chat with a character, replaying its history")
		fmt.Println("  -new                clear the conversation first")
		os.Exit(0)
	}

	client := newAPIClient(*baseURL)
	if err := client.Login(*email, *password); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	if *list {
		characters, err := client.Characters(*tag)
		if err != nil {
			log.Fatalf("Failed to list characters: %v", err)
		}
		for _, c := range characters {
			fmt.Printf("%4d  %s %s\n", c.ID, c.Emoji, c)
		}
		return
	}

	if !*fresh {
		detail, err := client.Detail(*characterID)
		if err != nil {
			log.Fatalf("Failed to load character: %v", err)
		}
		printHistory(os.Stdout, detail)
	}

	if err := runChat(client, *characterID, *fresh); err != nil {
		log.Fatal(err)
	}
}

func runChat(client *apiClient, characterID uint, fresh bool) error {
	conn, err := client.Dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Frames from the server
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.Message
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("WebSocket read error: %v", err)
				}
				return
			}
			printFrame(msg)
		}
	}()

	// Lines typed by the user
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	fmt.Println("Connected. Type a message and press Enter; Ctrl+C exits.")
	for {
		select {
		case <-done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return closeConn(conn, done)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := sendChat(conn, service.ChatRequest{
				CharacterID: characterID,
				Message:     line,
				StartNew:    fresh,
			}); err != nil {
				return fmt.Errorf("error writing message: %w", err)
			}
			fresh = false
		case <-ticker.C:
			if err := conn.WriteJSON(ws.Message{Type: ws.TypePing}); err != nil {
				return fmt.Errorf("error writing ping: %w", err)
			}
		case <-interrupt:
			return closeConn(conn, done)
		}
	}
}

func sendChat(conn *websocket.Conn, req service.ChatRequest) error {
	content, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return conn.WriteJSON(ws.Message{Type: ws.TypeChat, Content: content})
}

func printFrame(msg ws.Message) {
	switch msg.Type {
	case ws.TypeChat:
		var result service.ChatResult
		if err := json.Unmarshal(msg.Content, &result); err != nil {
			log.Printf("Malformed chat frame: %v", err)
			return
		}
		if result.Response == "" {
			fmt.Println("(no reply)")
			return
		}
		fmt.Printf("> %s\n", result.Response)
	case ws.TypeError:
		var e ws.ErrorContent
		if err := json.Unmarshal(msg.Content, &e); err != nil {
			log.Printf("Malformed error frame: %v", err)
			return
		}
		fmt.Printf("! %s (%s)\n", e.Error, e.Code)
	}
}

// printHistory replays the stored conversation before new input
func printHistory(w io.Writer, detail *service.CharacterDetail) {
	fmt.Fprintf(w, "Chatting with %s\n", detail.Character)
	for _, m := range detail.History {
		fmt.Fprintf(w, "[%s] %s\n", m.Sender(), m.MessageText)
	}
}

// closeConn closes the socket gracefully and waits briefly for the server
func closeConn(conn *websocket.Conn, done <-chan struct{}) error {
	err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return err
}
