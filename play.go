package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"xo-arena/internal/game"
	"xo-arena/internal/room"
	"xo-arena/internal/store"
	"xo-arena/internal/worker"
)

var playFlags struct {
	size       int
	runLength  int
	difficulty string
	symbol     string
	mode       string
	maxDepth   int
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game in the terminal",
	RunE:  runPlay,
}

func init() {
	f := playCmd.Flags()
	f.IntVar(&playFlags.size, "size", 3, "board size (3-6)")
	f.IntVar(&playFlags.runLength, "run-length", 0, "marks in a row needed to win (default 3 on 3x3, else 4)")
	f.StringVar(&playFlags.difficulty, "difficulty", "medium", "easy, medium or impossible")
	f.StringVar(&playFlags.symbol, "symbol", "X", "your symbol against the computer")
	f.StringVar(&playFlags.mode, "mode", "computer", "computer or local")
	f.IntVar(&playFlags.maxDepth, "max-depth", 0, "override the impossible search depth")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	opts := game.OptionsFrom(cfg)
	pool := worker.New(cfg.Worker, func(req game.Request) (game.Choice, error) {
		return game.Solve(req, opts)
	})
	go func() { _ = pool.Run(ctx) }()

	rm := room.NewManager(store.NewMemoryStore(), pool, cfg)
	st, err := rm.Create(ctx, room.CreateOptions{
		Mode:        room.Mode(playFlags.mode),
		BoardSize:   playFlags.size,
		RunLength:   playFlags.runLength,
		Difficulty:  playFlags.difficulty,
		HumanSymbol: playFlags.symbol,
		MaxDepth:    playFlags.maxDepth,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())
	for {
		fmt.Fprintf(out, "\n%s to move (%d in a row wins)\n", st.CurrentPlayerSymbol, st.RunLength)
		printState(out, st)

		switch st.Status {
		case room.StatusWon:
			fmt.Fprintf(out, "\n%s wins!\n", st.WinnerSymbol)
		case room.StatusDraw:
			fmt.Fprintln(out, "\nDraw.")
		}
		if st.Status != room.StatusActive {
			fmt.Fprintf(out, "Wins %d, losses %d, draws %d. Play again? [y/N] ", st.Stats.Wins, st.Stats.Losses, st.Stats.Draws)
			line, err := reader.ReadString('\n')
			if err != nil || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y") {
				return nil
			}
			if st, err = rm.Restart(ctx, st.SessionID); err != nil {
				return err
			}
			continue
		}

		fmt.Fprintln(out, "Enter your move: row col (e.g. 2 3)")
		fmt.Fprint(out, "> ")
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			return nil
		}
		row, col, ok := parseCell(line)
		if !ok {
			fmt.Fprintln(out, "Wrong format. Try again.")
			continue
		}

		next, err := rm.ApplyMove(ctx, st.SessionID, row-1, col-1, st.CurrentPlayerSymbol)
		if err != nil {
			if errors.Is(err, worker.ErrSearchFault) {
				return err
			}
			fmt.Fprintln(out, "Invalid move:", err)
			continue
		}
		if next.Mode == room.ModeComputer && next.LastMove != nil && *next.LastMove != (game.Move{Row: row - 1, Col: col - 1}) {
			fmt.Fprintf(out, "Computer played: %d %d\n", next.LastMove.Row+1, next.LastMove.Col+1)
		}
		st = next
	}
}

func parseCell(line string) (int, int, bool) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return 0, 0, false
	}
	r, err1 := strconv.Atoi(parts[0])
	c, err2 := strconv.Atoi(parts[1])
	return r, c, err1 == nil && err2 == nil
}

func printState(w io.Writer, st room.State) {
	b, err := game.ParseBoard(st.Board, st.BoardSize)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprint(w, b.String())
}
