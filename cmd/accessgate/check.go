package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	accessgate "github.com/civicworks/accessgate"
)

// checkResult is the printable form of a gate decision.
type checkResult struct {
	Path     string `json:"path"`
	Action   string `json:"action"`
	Location string `json:"location,omitempty"`
	Reason   string `json:"reason"`
	Excluded bool   `json:"excluded,omitempty"`
	Bucket   string `json:"bucket,omitempty"`
	Fresh    bool   `json:"fresh_bucket,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Role     string `json:"role,omitempty"`
}

func newCheckCommand() *cobra.Command {
	var (
		path       string
		credential string
		cookie     string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate one request offline and print the decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runCheck(configPath, path, credential, cookie)
		},
	}
	cmd.Flags().StringVar(&path, "path", "/", "request path to evaluate")
	cmd.Flags().StringVar(&credential, "token", "", "session credential to present")
	cmd.Flags().StringVar(&cookie, "bucket-cookie", "", "existing experiment cookie value")
	return cmd
}

func runCheck(configPath, path, credential, cookie string) error {
	cfg, fc, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	// Offline audit would only clutter the output.
	cfg.Audit.Enabled = false

	gate, cleanup, err := buildGate(cfg, fc, os.Stdout, true)
	if err != nil {
		return err
	}
	defer cleanup()

	decision := gate.Evaluate(context.Background(), accessgate.Request{
		Path:             path,
		Credential:       credential,
		ExperimentCookie: cookie,
	})

	result := checkResult{
		Path:     path,
		Action:   "allow",
		Location: decision.Location,
		Reason:   decision.Reason,
		Excluded: decision.Excluded,
		Bucket:   string(decision.Bucket),
		Fresh:    decision.AssignBucket,
	}
	if decision.Action == accessgate.ActionRedirect {
		result.Action = "redirect"
	}
	if decision.Claims != nil {
		result.Subject = decision.Claims.Subject
		result.Role = string(decision.Claims.Role)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
