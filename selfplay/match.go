// Package selfplay plays engines against each other and records the games.
package selfplay

import (
	"context"
	"fmt"
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clanpj/duo/engine"
)

type Result string

const (
	WhiteWins  Result = "1-0"
	BlackWins  Result = "0-1"
	Draw       Result = "1/2-1/2"
	Unfinished Result = "*"
)

// A Player is a named engine. Engines keep state between searches (the
// alpha-beta TT) so a Player must not be shared by concurrent games.
type Player struct {
	Name   string
	Engine engine.Engine
}

type Game struct {
	Round       int
	White       string
	Black       string
	StartFEN    string
	Moves       []string // UCI
	SAN         []string
	Result      Result
	Termination string
	FinalFEN    string
}

type MatchConfig struct {
	StartFEN   string                     // empty for the standard start position
	MoveParams func() engine.SearchParams // budget for each move; nil for a 100ms move time
	MaxPlies   int                        // adjudicate a draw after this many plies; <= 0 for no limit
}

func (cfg *MatchConfig) startFEN() string {
	if cfg.StartFEN == "" {
		return dragon.Startpos
	}
	return cfg.StartFEN
}

func (cfg *MatchConfig) moveParams() engine.SearchParams {
	if cfg.MoveParams != nil {
		return cfg.MoveParams()
	}
	params := engine.DefaultSearchParams()
	params.MoveTime = 100 * time.Millisecond
	return params
}

// Result and reason when the game is over on the board, or "" if it isn't.
func adjudicate(board *dragon.Board, repetitions map[uint64]int) (Result, string) {
	if len(board.GenerateLegalMoves()) == 0 {
		if !board.OurKingInCheck() {
			return Draw, "stalemate"
		}
		if board.Wtomove {
			return BlackWins, "checkmate"
		}
		return WhiteWins, "checkmate"
	}
	if repetitions[board.Hash()] >= 3 {
		return Draw, "threefold repetition"
	}
	if board.Halfmoveclock >= 100 {
		return Draw, "fifty-move rule"
	}
	if engine.IsInsufficientMaterial(board) {
		return Draw, "insufficient material"
	}
	return "", ""
}

// PlayGame plays one game to completion. Cancelling ctx stops the engine
// mid-search and leaves the game unfinished.
func PlayGame(ctx context.Context, white, black Player, cfg MatchConfig, log zerolog.Logger) (*Game, error) {
	board, err := engine.ParseFen(cfg.startFEN())
	if err != nil {
		return nil, err
	}
	game := &Game{
		White:    white.Name,
		Black:    black.Name,
		StartFEN: board.ToFen(),
		Result:   Unfinished,
	}

	hashes := []uint64{board.Hash()}
	repetitions := map[uint64]int{board.Hash(): 1}

	for ply := 0; ; ply++ {
		if result, reason := adjudicate(&board, repetitions); result != "" {
			game.Result, game.Termination = result, reason
			break
		}
		if cfg.MaxPlies > 0 && ply >= cfg.MaxPlies {
			game.Result, game.Termination = Draw, "ply limit"
			break
		}
		if err := ctx.Err(); err != nil {
			game.Termination = "abandoned"
			game.FinalFEN = board.ToFen()
			return game, err
		}

		mover := white
		if !board.Wtomove {
			mover = black
		}

		searchCtx := engine.NewSearchContext(board, cfg.moveParams())
		searchCtx.History = engine.NewHistoryTable(hashes...)
		searchCtx.SetLogger(log)
		stopSearch := context.AfterFunc(ctx, searchCtx.Stop)
		move := mover.Engine.Search(searchCtx)
		stopSearch()

		if move == engine.NoMove {
			return game, fmt.Errorf("%s returned no move in %s", mover.Name, board.ToFen())
		}
		legal, err := engine.FindMove(&board, move.String())
		if err != nil {
			return game, fmt.Errorf("%s: %w", mover.Name, err)
		}

		game.SAN = append(game.SAN, SAN(&board, legal))
		game.Moves = append(game.Moves, legal.String())
		board.Apply(legal)
		hashes = append(hashes, board.Hash())
		repetitions[board.Hash()]++

		log.Debug().Str("white", white.Name).Str("black", black.Name).Int("ply", ply+1).Str("move", game.SAN[len(game.SAN)-1]).Msg("move played")
	}

	game.FinalFEN = board.ToFen()
	log.Info().
		Str("white", white.Name).
		Str("black", black.Name).
		Str("result", string(game.Result)).
		Str("termination", game.Termination).
		Int("plies", len(game.Moves)).
		Msg("game over")
	return game, nil
}

// A Pairing hands out fresh players for one game so engines aren't shared.
type Pairing func() (a Player, b Player)

// PlayMatch plays games with colours alternating between the two players,
// at most parallel at a time. Games come back in round order.
func PlayMatch(ctx context.Context, pairing Pairing, games int, parallel int, cfg MatchConfig, log zerolog.Logger) ([]*Game, error) {
	results := make([]*Game, games)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for round := 0; round < games; round++ {
		g.Go(func() error {
			a, b := pairing()
			white, black := a, b
			if round%2 == 1 {
				white, black = b, a
			}
			game, err := PlayGame(gctx, white, black, cfg, log.With().Int("round", round+1).Logger())
			if game != nil {
				game.Round = round + 1
			}
			results[round] = game
			return err
		})
	}
	err := g.Wait()
	return results, err
}

// Score tallies points for the named player over finished games.
func Score(games []*Game, name string) (points float64, played int) {
	for _, game := range games {
		if game == nil || game.Result == Unfinished {
			continue
		}
		played++
		switch {
		case game.Result == Draw:
			points += 0.5
		case game.Result == WhiteWins && game.White == name,
			game.Result == BlackWins && game.Black == name:
			points++
		}
	}
	return points, played
}
