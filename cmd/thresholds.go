package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show or update the gate thresholds on a running service",
	Long: `Fetches the current gate thresholds from a running swapgate instance,
or updates them when --set is given a JSON document, e.g.:

  swapgate thresholds --set '{"max_impact_bps": 300}'

Updates require ADMIN_TOKEN to be set in the environment.`,
	RunE: runThresholds,
}

var (
	thresholdsURL string
	thresholdsSet string
)

func init() {
	rootCmd.AddCommand(thresholdsCmd)

	thresholdsCmd.Flags().StringVar(&thresholdsURL, "url", "http://localhost:8080", "Base URL of the running service")
	thresholdsCmd.Flags().StringVar(&thresholdsSet, "set", "", "JSON document of threshold fields to update")
}

func runThresholds(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := thresholdsURL + "/api/thresholds"

	var req *http.Request
	var err error
	if thresholdsSet == "" {
		req, err = http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
	} else {
		// Sanity-check the document before sending it
		var probe map[string]any
		if jsonErr := json.Unmarshal([]byte(thresholdsSet), &probe); jsonErr != nil {
			return fmt.Errorf("invalid --set document: %w", jsonErr)
		}
		req, err = http.NewRequestWithContext(cmd.Context(), http.MethodPut, endpoint, bytes.NewReader([]byte(thresholdsSet)))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
			token := os.Getenv("ADMIN_TOKEN")
			if token == "" {
				return fmt.Errorf("ADMIN_TOKEN not set in environment")
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var pretty bytes.Buffer
	err = json.Indent(&pretty, body, "", "  ")
	if err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())

	return nil
}
