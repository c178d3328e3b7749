// Package sequence predicts the volume, issue and serial labels of the next
// issue of a periodical.
package sequence

import (
	"strconv"

	"catalog/src/internal/numbering"
)

// Pattern is a periodical's numbering rule. Either result may be nil.
type Pattern interface {
	NextNumber(volume, issue *int64) (nextVolume, nextIssue *int64)
}

// Func adapts a plain function to Pattern.
type Func func(volume, issue *int64) (*int64, *int64)

// NextNumber calls f.
func (f Func) NextNumber(volume, issue *int64) (*int64, *int64) { return f(volume, issue) }

// Predict returns the labels for the issue following current. With a
// pattern, volume and issue come from it alone. Without one, a known issue
// is incremented and the volume label is kept. The serial label is
// incremented independently whenever it contains a digit; otherwise it is
// carried over unchanged. Results are labels, not integers: numbering.Normalize
// derives the integers again when the next record is saved.
func Predict(p Pattern, current numbering.SerialNumbering, text numbering.SerialText) numbering.SerialText {
	next := text
	switch {
	case p != nil:
		v, i := p.NextNumber(current.Volume, current.Issue)
		next.Volume = label(v)
		next.Issue = label(i)
	case current.Issue != nil:
		next.Issue = strconv.FormatInt(*current.Issue+1, 10)
	}
	if n, ok := numbering.ExtractInteger(text.Serial); ok {
		next.Serial = strconv.FormatInt(n+1, 10)
	}
	return next
}

func label(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
