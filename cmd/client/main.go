package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/nvaziri/roomhub/internal/domain"
)

var addr = flag.String("addr", "localhost:8080", "http service address")

func main() {
	flag.Parse()

	conn := connectWebSocket()
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go readEvents(conn, done)

	login(conn)

	fmt.Println("Commands: /join <room>, /leave <room>, /typing, /quit. Anything else is a message.")
	writeEvents(conn, interrupt, done)
}

func connectWebSocket() *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	log.Println("Connected to WebSocket server.")
	return conn
}

func login(conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("Enter your display name: ")
	scanner.Scan()
	name := scanner.Text()

	err := conn.WriteJSON(domain.Event{Type: domain.EventLogin, DisplayName: name})
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
}

func readEvents(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var ev domain.Event
		if err := conn.ReadJSON(&ev); err != nil {
			log.Printf("Connection closed: %v", err)
			return
		}

		switch ev.Type {
		case domain.EventLoginSuccess:
			fmt.Printf("* logged in as %s (identity %s)\n", ev.DisplayName, ev.IdentityID)
		case domain.EventLoginError, domain.EventRoomError:
			fmt.Printf("! %s\n", ev.Reason)
		case domain.EventRoomJoined:
			fmt.Printf("* joined %s\n", ev.Room)
		case domain.EventRoomLeft:
			fmt.Printf("* left %s\n", ev.Room)
		case domain.EventUserJoined:
			fmt.Printf("* %s joined %s\n", ev.DisplayName, ev.Room)
		case domain.EventUserLeft:
			fmt.Printf("* %s left %s\n", ev.DisplayName, ev.Room)
		case domain.EventMessage:
			fmt.Printf("[%s] %s: %s\n", ev.Room, ev.DisplayName, ev.Body)
		case domain.EventNotification:
			fmt.Printf("*** %s\n", ev.Body)
		case domain.EventTyping:
			fmt.Printf("* %s is typing...\n", ev.DisplayName)
		case domain.EventStopTyping:
			// Quiet; a real client would clear the indicator here.
		default:
			fmt.Printf("? %s\n", ev.Type)
		}
	}
}

func writeEvents(conn *websocket.Conn, interrupt chan os.Signal, done chan struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection...")
			err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Printf("Error during close: %v", err)
			}
			return
		default:
			if !scanner.Scan() {
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			ev, quit := parseLine(line)
			if quit {
				_ = conn.WriteJSON(domain.Event{Type: domain.EventDisconnect})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("Error sending event: %v", err)
				return
			}
		}
	}
}

func parseLine(line string) (domain.Event, bool) {
	if !strings.HasPrefix(line, "/") {
		return domain.Event{Type: domain.EventMessage, Body: line}, false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/join":
		return domain.Event{Type: domain.EventJoinRoom, Room: arg}, false
	case "/leave":
		return domain.Event{Type: domain.EventLeaveRoom, Room: arg}, false
	case "/typing":
		return domain.Event{Type: domain.EventStartTyping}, false
	case "/broadcast":
		return domain.Event{Type: domain.EventAdminBroadcast, Body: arg}, false
	case "/quit":
		return domain.Event{}, true
	default:
		fmt.Printf("! unknown command %s\n", cmd)
		return domain.Event{Type: domain.EventMessage, Body: line}, false
	}
}
