package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

// newSubmitCmd submits an instruction file for asynchronous execution.
func newSubmitCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <instruction.json>",
		Short: "Submit an instruction for asynchronous execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read instruction file: %w", err)
			}
			return postJSON(opts, "/api/v1/instructions", body)
		},
	}
}

// newRunCmd runs an instruction file synchronously.
func newRunCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <instruction.json>",
		Short: "Run an instruction synchronously and print the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read instruction file: %w", err)
			}
			return postJSON(opts, "/api/v1/instructions/run", body)
		},
	}
}

// newStatusCmd fetches the state of a workflow.
func newStatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <workflow-id>",
		Short: "Show the state of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequest(http.MethodGet, opts.APIBase+"/api/v1/instructions/"+args[0], nil)
			if err != nil {
				return err
			}
			return doRequest(opts, req)
		},
	}
}

// postJSON posts a JSON body to the server and prints the response.
func postJSON(opts *Options, path string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, opts.APIBase+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(opts, req)
}

// doRequest executes the request and pretty-prints the JSON response. A non-2xx
// response is printed and returned as an error so the exit code reflects it.
func doRequest(opts *Options, req *http.Request) error {
	if opts.APIKey != "" {
		req.Header.Set("X-API-Key", opts.APIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	fmt.Println(pretty.String())

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
