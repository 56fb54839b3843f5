// Package main runs a demo WebSocket client for plan progress events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type planEvent struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	planID := fmt.Sprintf("demo-%d", time.Now().Unix())

	// Subscribe to the progress stream before posting the plan.
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/plan/" + planID + "/events/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	go func() {
		for {
			var evt planEvent
			if err := c.ReadJSON(&evt); err != nil {
				return
			}
			log.Printf("stage=%s detail=%s", evt.Stage, evt.Detail)
		}
	}()

	body := []byte(`{
		"city": "Belo Horizonte",
		"start": "Praca da Liberdade",
		"end": "Mercado Central",
		"extras": ["Rua Sapucai, 300"],
		"strategy": "local-search"
	}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/plan?planId="+planID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var plan struct {
		ID     string  `json:"id"`
		TotalM float64 `json:"totalM"`
		Stops  []struct {
			Name string `json:"name"`
		} `json:"stops"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		log.Fatal(err)
	}
	log.Printf("plan %s: %.0f m over %d stops", plan.ID, plan.TotalM, len(plan.Stops))
	for i, s := range plan.Stops {
		log.Printf("  %d. %s", i+1, s.Name)
	}

	// Give the stream a moment to deliver the terminal event.
	time.Sleep(500 * time.Millisecond)
}
