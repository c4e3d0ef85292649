package engine

// Quiescence search: captures and queen promotions only, with the static
// eval as a stand-pat lower bound. Fail-hard on the stand-pat cut.
func (s *SearchT) QSearchNegAlphaBeta(alpha EvalCp, beta EvalCp, depthFromRoot int) EvalCp {
	s.ctx.AddNodes(1)
	s.stats.QNodes++
	s.ctx.ClearPv(depthFromRoot)

	if s.ctx.ShouldStop() {
		return DrawEval
	}

	board := s.board
	if depthFromRoot >= MaxDepth {
		return s.eval.Evaluate(s.ctx, board)
	}

	if s.ctx.History.IsRepetition(board.Hash()) {
		s.stats.PosRepetitions++
		return DrawEval
	}

	standPat := s.eval.Evaluate(s.ctx, board)
	if standPat >= beta {
		s.stats.QPatCuts++
		return beta
	}
	bestEval := max(alpha, standPat)

	moves := noisyMoves(board, board.GenerateLegalMoves())
	orderMoves(s.ctx, s.eval, board, moves, NoMove, depthFromRoot)

	for _, move := range moves {
		unapply := board.Apply(move)
		childZobrist := board.Hash()
		s.ctx.History.Add(childZobrist)

		eval := -s.QSearchNegAlphaBeta(-beta, -bestEval, depthFromRoot+1)

		s.ctx.History.Remove(childZobrist)
		unapply()

		if eval >= beta {
			return eval
		}
		if eval > bestEval {
			bestEval = eval
			s.ctx.UpdatePv(move, depthFromRoot)
		}
	}

	return bestEval
}
