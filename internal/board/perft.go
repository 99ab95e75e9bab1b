package board

// Perft counts leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var buf [MaxMoves]Move
	moves := p.GenerateMoves(buf[:0])
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		p.MakeMove(m, nil)
		nodes += p.Perft(depth - 1)
		p.UndoMove(m, nil)
	}
	return nodes
}

// DivideEntry is the perft count below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide runs perft for each root move separately.
func (p *Position) Divide(depth int) []DivideEntry {
	var buf [MaxMoves]Move
	moves := p.GenerateMoves(buf[:0])
	entries := make([]DivideEntry, 0, len(moves))
	for _, m := range moves {
		p.MakeMove(m, nil)
		entries = append(entries, DivideEntry{Move: m, Nodes: p.Perft(depth - 1)})
		p.UndoMove(m, nil)
	}
	return entries
}
