package layout

import "github.com/gogpu/collage"

// Drawer draws one piece. *collage.Collager implements it.
type Drawer interface {
	DrawPiece(collage.PieceSpec) (collage.Piece, error)
}

// Queue hands out pieces one at a time. A frame loop calls Step once per
// frame instead of sleeping between DrawImage calls.
type Queue struct {
	specs []collage.PieceSpec
	next  int
}

// NewQueue returns a queue over a copy of specs.
func NewQueue(specs []collage.PieceSpec) *Queue {
	return &Queue{specs: append([]collage.PieceSpec(nil), specs...)}
}

// Step draws the next piece. It reports false once the queue is drained.
// A failed piece is not retried.
func (q *Queue) Step(d Drawer) (collage.Piece, bool, error) {
	if q.next >= len(q.specs) {
		return collage.Piece{}, false, nil
	}
	s := q.specs[q.next]
	q.next++
	p, err := d.DrawPiece(s)
	return p, true, err
}

// Drain draws every remaining piece and stops at the first error.
func (q *Queue) Drain(d Drawer) (int, error) {
	n := 0
	for {
		_, ok, err := q.Step(d)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// Remaining returns the number of pieces not yet drawn.
func (q *Queue) Remaining() int {
	return len(q.specs) - q.next
}

// Len returns the total number of pieces.
func (q *Queue) Len() int {
	return len(q.specs)
}

// Reset rewinds the queue.
func (q *Queue) Reset() {
	q.next = 0
}
