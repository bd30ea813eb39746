package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuxishi/quota-provider/internal/model"
)

var eventFile string

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Handle a single lifecycle event and print the progress event",
	Example: `  quota-provider invoke --event create.json
  cat update.json | quota-provider invoke --event -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequest(cmd.InOrStdin(), eventFile)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		ev := a.provider.Handle(cmd.Context(), req)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if ev.Status == model.StatusFailed {
			return fmt.Errorf("%s: %s", ev.ErrorCode, ev.Message)
		}
		return nil
	},
}

func init() {
	invokeCmd.Flags().StringVarP(&eventFile, "event", "e", "-", "event file, or - for stdin")
}

func readRequest(stdin io.Reader, name string) (*model.Request, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var req model.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	return &req, nil
}
