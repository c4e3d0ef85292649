package selfplay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/freeeve/pgn/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/clanpj/duo/engine"
)

var ErrFinalPosition = errors.New("replayed game does not reach its recorded final position")

const pgnLineWidth = 80

// WritePGN writes games in export format. Start positions other than the
// standard one get FEN and SetUp tags; every game carries its final FEN.
func WritePGN(w io.Writer, games []*Game) error {
	bw := bufio.NewWriter(w)
	date := time.Now().Format("2006.01.02")
	for _, game := range games {
		if game == nil {
			continue
		}
		writeTag(bw, "Event", "Self-play")
		writeTag(bw, "Site", "local")
		writeTag(bw, "Date", date)
		writeTag(bw, "Round", fmt.Sprint(game.Round))
		writeTag(bw, "White", game.White)
		writeTag(bw, "Black", game.Black)
		writeTag(bw, "Result", string(game.Result))
		if game.StartFEN != "" && fenKey(game.StartFEN) != fenKey(dragon.Startpos) {
			writeTag(bw, "SetUp", "1")
			writeTag(bw, "FEN", game.StartFEN)
		}
		writeTag(bw, "Termination", game.Termination)
		writeTag(bw, "PlyCount", fmt.Sprint(len(game.SAN)))
		writeTag(bw, "FinalFEN", game.FinalFEN)
		bw.WriteString("\n")
		writeMovetext(bw, game)
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func writeTag(w *bufio.Writer, name, value string) {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	fmt.Fprintf(w, "[%s \"%s\"]\n", name, value)
}

func writeMovetext(w *bufio.Writer, game *Game) {
	whiteFirst, moveNo := true, 1
	if board, err := engine.ParseFen(game.StartFEN); err == nil && game.StartFEN != "" {
		whiteFirst, moveNo = board.Wtomove, int(board.Fullmoveno)
	}

	tokens := make([]string, 0, len(game.SAN)*3/2+1)
	for i, san := range game.SAN {
		white := (i%2 == 0) == whiteFirst
		switch {
		case white:
			tokens = append(tokens, fmt.Sprintf("%d.", moveNo))
		case i == 0:
			tokens = append(tokens, fmt.Sprintf("%d...", moveNo))
		}
		tokens = append(tokens, san)
		if !white {
			moveNo++
		}
	}
	tokens = append(tokens, string(game.Result))

	lineLen := 0
	for _, token := range tokens {
		if lineLen > 0 && lineLen+1+len(token) > pgnLineWidth {
			w.WriteString("\n")
			lineLen = 0
		}
		if lineLen > 0 {
			w.WriteString(" ")
			lineLen++
		}
		w.WriteString(token)
		lineLen += len(token)
	}
	w.WriteString("\n")
}

// WritePGNFile writes games to path, zstd-compressed if it ends in .zst.
func WritePGNFile(path string, games []*Game) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".zst") {
		return WritePGN(f, games)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := WritePGN(enc, games); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Piece placement, side to move and castling rights. Libraries disagree on
// when to print an en passant square, and clocks don't matter here.
func fenKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}

// VerifyPGN re-parses a written file with an independent move generator and
// checks that every game replays to its FinalFEN tag. It returns the number
// of games checked.
func VerifyPGN(path string) (int, error) {
	parser := pgn.Games(path)

	checked := 0
	var verifyErr error
	for game := range parser.Games {
		if verifyErr != nil {
			continue
		}
		checked++

		fen := dragon.Startpos
		if tagFen, ok := game.Tags["FEN"]; ok && tagFen != "" {
			fen = tagFen
		}
		pos, err := pgn.NewGame(fen)
		if err != nil {
			verifyErr = fmt.Errorf("game %d: %w", checked, err)
			parser.Stop()
			continue
		}
		for i, mv := range game.Moves {
			if err := pgn.ApplyMove(pos, mv); err != nil {
				verifyErr = fmt.Errorf("game %d ply %d: %w", checked, i+1, err)
				break
			}
		}
		if verifyErr == nil {
			if want := game.Tags["FinalFEN"]; want != "" && fenKey(pos.ToFEN()) != fenKey(want) {
				verifyErr = fmt.Errorf("game %d: %w: got %q want %q", checked, ErrFinalPosition, pos.ToFEN(), want)
			}
		}
		if verifyErr != nil {
			parser.Stop()
		}
	}
	if verifyErr != nil {
		return checked, verifyErr
	}
	if err := parser.Err(); err != nil {
		return checked, err
	}
	return checked, nil
}
