package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"xo-arena/internal/game"
)

var benchCmd = &cobra.Command{
	Use:   "bench [request.json]",
	Short: "Solve one move request and report the choice and timing",
	Long:  "Reads a JSON move request from the given file, or stdin when omitted, and runs the engine on it in-process.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBench,
}

type benchResult struct {
	Choice  game.Choice `json:"choice"`
	Elapsed string      `json:"elapsed"`
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var req game.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	start := time.Now()
	choice, err := game.Solve(req, game.OptionsFrom(cfg))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(benchResult{Choice: choice, Elapsed: time.Since(start).String()})
}
