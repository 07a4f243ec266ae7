package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wumpusworld.ai/internal/logic"
	"wumpusworld.ai/internal/sim/axioms"
)

var (
	askGrid      int
	askOneWumpus bool
	askMethod    string
	askLimit     int
)

var askCmd = &cobra.Command{
	Use:   "ask <sentences-file> <query>...",
	Short: "Tell a knowledge base the sentences in a file and ask queries",
	Long: `Reads one sentence per line (blank lines and lines starting with # are
skipped), tells each to a fresh knowledge base and prints ENTAILED, REFUTED or
UNKNOWN for every query.

Syntax: atoms like P12 or W_3_1, ~ & | => <=>, parentheses, True, False.

Example:
  wumpus ask --grid 4 facts.txt P13 "W13 | W22"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	fl := askCmd.Flags()
	fl.IntVar(&askGrid, "grid", 0, "preload the breeze/stench rules for an NxN cave")
	fl.BoolVar(&askOneWumpus, "one-wumpus", false, "with --grid, also preload exactly-one-wumpus")
	fl.StringVar(&askMethod, "method", "auto", "auto, enumerate or dpll")
	fl.IntVar(&askLimit, "enumeration-limit", logic.DefaultEnumerationLimit, "atom count up to which auto enumerates")
}

func runAsk(cmd *cobra.Command, args []string) error {
	m, err := logic.ParseMethod(askMethod)
	if err != nil {
		return err
	}
	kb := logic.NewKB(logic.WithMethod(m), logic.WithEnumerationLimit(askLimit))

	if askGrid > 0 {
		if askGrid < 2 {
			return fmt.Errorf("--grid must be at least 2, got %d", askGrid)
		}
		if err := axioms.TellAll(kb, axioms.Background(askGrid)); err != nil {
			return err
		}
		if askOneWumpus {
			if err := axioms.TellAll(kb, axioms.OneWumpus(askGrid)); err != nil {
				return err
			}
		}
	}

	told, err := tellFile(kb, args[0])
	if err != nil {
		return err
	}
	logger.Debug("knowledge base loaded",
		zap.Int("sentences", told),
		zap.Int("clauses", kb.Len()),
		zap.String("method", m.String()),
	)

	out := cmd.OutOrStdout()
	for _, q := range args[1:] {
		a, err := kb.AskString(q)
		if err != nil {
			return fmt.Errorf("query %q: %w", q, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", a, q)
	}
	return nil
}

func tellFile(kb *logic.KB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	told := 0
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if err := kb.TellString(s); err != nil {
			return told, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		told++
	}
	return told, sc.Err()
}
