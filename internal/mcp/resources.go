package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) defaultsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(map[string]any{
		"model_type":       h.defaults.Model,
		"target_mileage":   h.defaults.Target,
		"starting_mileage": h.defaults.Starting,
		"a_parameter":      h.defaults.A,
		"b_parameter":      h.defaults.B,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
