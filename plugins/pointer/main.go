// Package main is a cursor plugin. It reads one request on stdin and moves
// the system pointer with robotgo.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-vgo/robotgo"
)

// Request is the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Params  json.RawMessage `json:"params"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type actionHandler func(params json.RawMessage) (any, error)

var actionHandlers = map[string]actionHandler{
	"move":     move,
	"position": position,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	data, err := handler(req.Params)
	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
		return
	}

	resp := Response{Success: true}
	if data != nil {
		resp.Data, _ = json.Marshal(data)
	}
	writeResponse(resp)
}

func move(params json.RawMessage) (any, error) {
	var p point
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	robotgo.Move(p.X, p.Y)
	return nil, nil
}

func position(json.RawMessage) (any, error) {
	x, y := robotgo.Location()
	return point{X: x, Y: y}, nil
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
