// Package main provides a notification plugin for macOS.
// It shows the session score in Notification Center via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Session *Session        `json:"session"`
	Config  json.RawMessage `json:"config"`
}

// Session is the subset of a session record this plugin reads.
type Session struct {
	ID           string  `json:"id"`
	ExerciseType string  `json:"exercise_type"`
	Status       string  `json:"status"`
	Summary      Summary `json:"summary"`
}

// Summary is the subset of a session summary this plugin reads.
type Summary struct {
	FramesProcessed int `json:"frames_processed"`
	Score           *struct {
		Overall float64 `json:"overall"`
	} `json:"score"`
	Feedback []struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
	} `json:"feedback"`
}

// Config holds per-action settings.
type Config struct {
	Title string `json:"title"`
	Sound string `json:"sound"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action != "session_complete" {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}
	if req.Session == nil {
		writeErrorResponse("request has no session")
		return
	}

	cfg := Config{Title: "PoseCoach"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}
	if cfg.Title == "" {
		cfg.Title = "PoseCoach"
	}

	message := notificationText(req.Session)
	if err := notify(cfg, message); err != nil {
		writeErrorResponse(fmt.Sprintf("notification failed: %v", err))
		return
	}

	data, _ := json.Marshal(map[string]string{"message": message})
	writeResponse(Response{Success: true, Data: data})
}

// notificationText summarizes a finished session in one line.
func notificationText(s *Session) string {
	var b strings.Builder
	b.WriteString(s.ExerciseType)
	if s.Summary.Score != nil {
		b.WriteString(" score ")
		b.WriteString(strconv.FormatFloat(s.Summary.Score.Overall, 'f', -1, 64))
	} else {
		b.WriteString(" finished without a score")
	}
	b.WriteString(fmt.Sprintf(" over %d frames", s.Summary.FramesProcessed))

	for _, item := range s.Summary.Feedback {
		if item.Severity == "warning" {
			b.WriteString(". ")
			b.WriteString(item.Message)
			break
		}
	}
	return b.String()
}

func notify(cfg Config, message string) error {
	script := fmt.Sprintf("display notification %s with title %s", quote(message), quote(cfg.Title))
	if cfg.Sound != "" {
		script += " sound name " + quote(cfg.Sound)
	}
	return runAppleScript(script)
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	writeResponse(Response{
		Success: false,
		Error:   errMsg,
	})
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
