package action

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/mudra/internal/plugin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MoveAction is the plugin action name for cursor movement.
const MoveAction = "move"

// PluginCursor delegates cursor movement to an external plugin.
type PluginCursor struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginCursor looks up name in manager and checks that it supports MoveAction.
func NewPluginCursor(manager *plugin.Manager, executor *plugin.Executor, name string) (*PluginCursor, error) {
	p, err := manager.Get(name)
	if err != nil {
		return nil, err
	}
	if !p.Manifest.Supports(MoveAction) {
		return nil, fmt.Errorf("plugin %s does not support %q", name, MoveAction)
	}
	return &PluginCursor{plugin: p, executor: executor}, nil
}

type moveParams struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MoveCursorTo implements Cursor.
func (c *PluginCursor) MoveCursorTo(x, y int) error {
	params, err := json.Marshal(moveParams{X: x, Y: y})
	if err != nil {
		return err
	}

	resp, err := c.executor.Execute(context.Background(), c.plugin, &plugin.Request{
		Action:  MoveAction,
		Gesture: "Point",
		Params:  params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s", c.plugin.Manifest.Name, resp.Error)
	}
	return nil
}
