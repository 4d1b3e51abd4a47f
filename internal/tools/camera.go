package tools

import (
	"context"
	_ "embed"
	"path/filepath"

	"camcheck/internal/agent"
	"camcheck/internal/reference"
	"camcheck/pkg/mcpserver"
)

// CheckCameraTool is the MCP name of the camera lookup tool.
const CheckCameraTool = "check_camera"

// DevicesResource exposes the reference list itself over MCP.
const DevicesResource = "elgato-tested-devices"

//go:embed tools.json
var toolsJSON []byte

// Asker is the part of agent.Session the tool needs.
type Asker interface {
	Ask(ctx context.Context, query string) (agent.Answer, error)
}

// CameraChecker answers check_camera calls.
type CameraChecker struct {
	session Asker
}

// NewCameraChecker creates a checker backed by session.
func NewCameraChecker(session Asker) *CameraChecker {
	return &CameraChecker{session: session}
}

// CheckCamera sends cameraName to the model unchanged and returns the first
// text block of the reply, or "" when the reply has no text.
func (c *CameraChecker) CheckCamera(ctx context.Context, cameraName string) (string, error) {
	answer, err := c.session.Ask(ctx, cameraName)
	if err != nil {
		return "", err
	}
	return answer.Text(), nil
}

func (c *CameraChecker) handle(ctx context.Context, args map[string]any) (mcpserver.ToolResult, error) {
	// The input schema has already guaranteed a string.
	name, _ := args["camera_name"].(string)
	text, err := c.CheckCamera(ctx, name)
	if err != nil {
		return mcpserver.ToolResult{}, err
	}
	return mcpserver.TextResult(text), nil
}

// ServerOptions declares the tools and resources RegisterAll provides.
func ServerOptions(ref reference.List) []mcpserver.Option {
	return []mcpserver.Option{
		mcpserver.WithToolsJSON(toolsJSON),
		mcpserver.WithResources(mcpserver.Resource{
			Name:        DevicesResource,
			Description: "The list of Elgato Tested Devices used to answer check_camera.",
			URI:         "file:///" + resourceName(ref),
			MimeType:    "application/json",
		}),
	}
}

// RegisterAll attaches the camera handlers to a server built with ServerOptions.
func RegisterAll(srv *mcpserver.Server, checker *CameraChecker, ref reference.List) error {
	if err := srv.HandleTool(CheckCameraTool, checker.handle); err != nil {
		return err
	}
	return srv.HandleResource(DevicesResource, func(_ context.Context, uri string) (mcpserver.ResourceContent, error) {
		return mcpserver.ResourceContent{URI: uri, MimeType: "application/json", Text: ref.Text()}, nil
	})
}

func resourceName(ref reference.List) string {
	if ref.Path() == "" {
		return reference.DefaultPath
	}
	return filepath.Base(ref.Path())
}
