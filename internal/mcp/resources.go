package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/lineage/internal/store"
)

type familyInfo struct {
	Name  string   `json:"name"`
	Trees []string `json:"trees"`
}

func registerFamiliesResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"lineage://families",
		"Families",
		mcp.WithResourceDescription("All families with the tree files saved under each."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		names, err := st.ListFamilies(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing families: %w", err)
		}

		families := make([]familyInfo, 0, len(names))
		for _, name := range names {
			trees, err := st.ListTrees(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("listing trees for %s: %w", name, err)
			}
			families = append(families, familyInfo{Name: name, Trees: trees})
		}

		data, _ := json.MarshalIndent(families, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
