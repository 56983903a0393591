// Command ws_smoke exercises a running server end to end: it logs in over
// REST, opens the websocket, sends one message, and prints every frame it
// receives until the timeout.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pairchat/pairchat-server/internal/proto"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	username := flag.String("user", "tester", "username to log in as")
	password := flag.String("password", "password123", "password")
	receiver := flag.String("to", "", "receiver username (required)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *receiver == "" {
		log.Fatal("-to is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := login(ctx, *base, *username, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	wsAddr := "ws" + (*base)[len("http"):] + "/ws?token=" + token + "&friend_username=" + *receiver
	conn, _, err := websocket.Dial(ctx, wsAddr, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.Inbound{
		Message:          *text,
		ReceiverUsername: *receiver,
	}); err != nil {
		log.Fatalf("send: %v", err)
	}

	for {
		var frame json.RawMessage
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			log.Printf("read: %v", err)
			return
		}
		fmt.Printf("<- %s\n", frame)
	}
}

func login(ctx context.Context, base, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}
