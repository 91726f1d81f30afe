package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func intArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(f), nil
}

// stringListArg accepts a JSON array, a string holding a JSON array, or a
// comma-separated string.
func stringListArg(args map[string]any, key string) ([]string, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		if strings.HasPrefix(v, "[") {
			var out []string
			if err := json.Unmarshal([]byte(v), &out); err != nil {
				return nil, fmt.Errorf("invalid %s JSON: %v", key, err)
			}
			return out, nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("%s must be a list of strings", key)
	}
}

func uuidArg(args map[string]any, key string) (uuid.UUID, error) {
	s := stringArg(args, key)
	if s == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid id: %v", key, err)
	}
	return id, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError reports err to the caller. Store inconsistencies are also logged
// since the caller cannot fix them.
func toolError(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, testsuite.ErrInternal) {
		slog.Error("bench operation failed", "action", action, "error", err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}
