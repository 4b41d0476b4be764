package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/routemesh/core"
)

// outcomeView is the printable form of a dispatch outcome.
type outcomeView struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", data)
	return nil
}

// printOutcome writes out and returns an error for failures so the exit
// status reflects the call.
func printOutcome(w io.Writer, path string, out core.Outcome) error {
	view := outcomeView{Success: out.Success, Code: out.Code(), Message: out.Message, Data: out.Data}

	if outputFormat == "json" {
		if err := printJSON(w, view); err != nil {
			return err
		}
	} else if out.Success {
		data, err := json.Marshal(out.Data)
		if err != nil {
			data = []byte(fmt.Sprintf("%v", out.Data))
		}
		fmt.Fprintf(w, "OK %s %s\n", path, data)
	} else {
		fmt.Fprintf(w, "FAILED %s [%d] %s\n", path, view.Code, out.Message)
	}

	if !out.Success {
		return fmt.Errorf("%s failed: %s", path, out.Message)
	}
	return nil
}

// parseAssignments turns key=value arguments into parameters. Values that
// parse as JSON keep their JSON type; anything else stays a string.
func parseAssignments(args []string) (core.Params, error) {
	params := core.Params{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", arg)
		}
		params[key] = parseValue(raw)
	}
	return params, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
