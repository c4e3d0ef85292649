package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"

	"github.com/clanpj/duo/engine"
	"github.com/clanpj/duo/logx"
)

var VersionString = "0.1 duo " + runtime.GOOS + "-" + runtime.GOARCH

func main() {
	logLevel := flag.String("log-level", "info", "log level for stderr diagnostics")
	flag.Parse()

	logx.SetLevel(*logLevel)
	log := logx.NewLogger(os.Stderr)

	uciLoop(os.Stdin, os.Stdout, log)
}

// stdout is shared by the command loop and the search goroutine
type uciOut struct {
	mu sync.Mutex
	w  io.Writer
}

func (o *uciOut) println(a ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, a...)
}

type uciReporter struct {
	out *uciOut
}

func (r *uciReporter) Info(info engine.SearchInfo) {
	ms := info.Elapsed.Milliseconds()
	nps := int64(0)
	if ms > 0 {
		nps = info.Nodes * 1000 / ms
	}
	r.out.println("info depth", info.Depth, "score", uciScore(info.Score), "nodes", info.Nodes, "time", ms, "nps", nps, "pv", engine.MovesString(info.Pv))
}

func (r *uciReporter) Message(msg string) {
	r.out.println("info string", msg)
}

func (r *uciReporter) BestMove(move dragon.Move) {
	r.out.println("bestmove", engine.MoveString(move))
}

// Score from the side to move's point of view, as "cp N" or "mate N" in moves.
func uciScore(score engine.EvalCp) string {
	if !engine.IsMateScore(score) {
		return fmt.Sprintf("cp %d", score)
	}
	if score > 0 {
		plies := engine.MateValue - score
		return fmt.Sprintf("mate %d", (plies+1)/2)
	}
	plies := engine.MateValue + score
	return fmt.Sprintf("mate -%d", (plies+1)/2)
}

func uciLoop(in io.Reader, w io.Writer, log zerolog.Logger) {
	out := &uciOut{w: w}
	searcher := engine.NewSearcher(&uciReporter{out: out}, log)
	options := searcher.Options()

	var evalEngine *engine.UCIEvaluator
	evalEnginePath := ""
	defer func() {
		searcher.Stop()
		searcher.Wait()
		if evalEngine != nil {
			evalEngine.Close()
		}
	}()
	options.RegisterString("EvalEngine",
		func() string { return evalEnginePath },
		func(path string) error {
			var next *engine.UCIEvaluator
			if path != "" {
				var err error
				next, err = engine.NewUCIEvaluator(path, engine.UCIEvalDepth, log)
				if err != nil {
					return err
				}
			}
			var err error
			if next == nil {
				err = searcher.SetSimulationEvaluator(nil)
			} else {
				err = searcher.SetSimulationEvaluator(next)
			}
			if err != nil {
				if next != nil {
					next.Close()
				}
				return err
			}
			if evalEngine != nil {
				evalEngine.Close()
			}
			evalEngine, evalEnginePath = next, path
			return nil
		})

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		switch strings.ToLower(tokens[0]) {
		case "uci":
			out.println("id name duo", VersionString)
			out.println("id author Clan PJ")
			for _, param := range options.Params() {
				out.println(param.UCIOption())
			}
			out.println("uciok")
		case "isready":
			out.println("readyok")
		case "ucinewgame":
			searcher.NewGame()
		case "quit":
			return
		case "stop":
			searcher.Stop()
		case "setoption":
			name, value, ok := parseSetOption(tokens)
			if !ok {
				out.println("info string Malformed setoption command")
				continue
			}
			if err := options.Set(name, value); err != nil {
				out.println("info string", err)
				continue
			}
			log.Info().Str("name", name).Str("value", value).Msg("option set")
		case "position":
			fen, moves, err := parsePosition(tokens)
			if err != nil {
				out.println("info string", err)
				continue
			}
			if err := searcher.SetupPosition(fen, moves); err != nil {
				out.println("info string", err)
			}
		case "go":
			params, warnings := parseGo(tokens)
			for _, warning := range warnings {
				out.println("info string", warning)
			}
			// The searcher reports its own advisory when busy
			if err := searcher.Start(params); err != nil {
				log.Debug().Err(err).Msg("go ignored")
			}
		case "d":
			board := searcher.Board()
			out.println("info string", board.ToFen())
		default:
			out.println("info string Unknown command:", line)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("reading stdin")
	}
}

// setoption name <name...> [value <value...>]
func parseSetOption(tokens []string) (name string, value string, ok bool) {
	if len(tokens) < 3 || strings.ToLower(tokens[1]) != "name" {
		return "", "", false
	}
	rest := tokens[2:]
	valueAt := -1
	for i, token := range rest {
		if strings.ToLower(token) == "value" {
			valueAt = i
			break
		}
	}
	if valueAt == 0 {
		return "", "", false
	}
	if valueAt < 0 {
		// Buttons and checks sometimes come without a value
		return strings.Join(rest, " "), "true", true
	}
	return strings.Join(rest[:valueAt], " "), strings.Join(rest[valueAt+1:], " "), true
}

// position [startpos | fen <fen...>] [moves <move...>]
func parsePosition(tokens []string) (fen string, moves []string, err error) {
	if len(tokens) < 2 {
		return "", nil, fmt.Errorf("malformed position command")
	}
	rest := tokens[2:]
	switch strings.ToLower(tokens[1]) {
	case "startpos":
		fen = dragon.Startpos
	case "fen":
		var fields []string
		for len(rest) > 0 && strings.ToLower(rest[0]) != "moves" {
			fields = append(fields, rest[0])
			rest = rest[1:]
		}
		if len(fields) == 0 {
			return "", nil, fmt.Errorf("invalid fen position")
		}
		fen = strings.Join(fields, " ")
	default:
		return "", nil, fmt.Errorf("invalid position subcommand %q", tokens[1])
	}
	if len(rest) > 0 && strings.ToLower(rest[0]) == "moves" {
		moves = lowerAll(rest[1:])
	}
	return fen, moves, nil
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

var goIntArgs = map[string]bool{
	"wtime": true, "btime": true, "winc": true, "binc": true,
	"movestogo": true, "depth": true, "nodes": true, "movetime": true, "mate": true,
}

// parseGo fills in the search parameters; anything unparseable is reported
// and skipped, leaving the default.
func parseGo(tokens []string) (engine.SearchParams, []string) {
	params := engine.DefaultSearchParams()
	var warnings []string
	nodesGiven := false

	for i := 1; i < len(tokens); i++ {
		token := strings.ToLower(tokens[i])
		switch {
		case token == "infinite":
			params.Infinite = true
		case token == "ponder":
			params.Ponder = true
		case token == "searchmoves":
			for i+1 < len(tokens) && !goIntArgs[strings.ToLower(tokens[i+1])] &&
				tokens[i+1] != "infinite" && tokens[i+1] != "ponder" {
				i++
				params.SearchMoves = append(params.SearchMoves, strings.ToLower(tokens[i]))
			}
		case goIntArgs[token]:
			if i+1 >= len(tokens) {
				warnings = append(warnings, fmt.Sprintf("Malformed go command option %s", token))
				continue
			}
			i++
			n, err := strconv.ParseInt(tokens[i], 10, 64)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("Malformed go command option; could not convert %s", token))
				continue
			}
			setGoInt(&params, token, n)
			nodesGiven = nodesGiven || token == "nodes"
		default:
			warnings = append(warnings, fmt.Sprintf("Unknown go subcommand %s", token))
		}
	}
	// Only "stop" may end these
	if (params.Infinite || params.Ponder) && !nodesGiven {
		params.Nodes = 0
	}
	return params, warnings
}

func setGoInt(params *engine.SearchParams, name string, n int64) {
	ms := time.Duration(n) * time.Millisecond
	switch name {
	case "wtime":
		params.WhiteTime = ms
	case "btime":
		params.BlackTime = ms
	case "winc":
		params.WhiteIncrement = ms
	case "binc":
		params.BlackIncrement = ms
	case "movetime":
		params.MoveTime = ms
	case "movestogo":
		params.MovesToGo = int(n)
	case "depth":
		params.Depth = int(min(max(n, engine.MinDepth), engine.MaxDepth))
	case "nodes":
		params.Nodes = n
	case "mate":
		// A mate in n moves needs at most 2n-1 plies
		params.Depth = int(min(max(2*n-1, engine.MinDepth), engine.MaxDepth))
	}
}
