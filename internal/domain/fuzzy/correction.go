package fuzzy

// Correction is the outcome of correcting a single word: either a corpus word
// to use instead, or nothing to suggest.
type Correction struct {
	word      string
	corrected bool
}

// Corrected returns a correction to word.
func Corrected(word string) Correction {
	return Correction{word: word, corrected: true}
}

// Uncorrected returns the "nothing to suggest" correction.
func Uncorrected() Correction {
	return Correction{}
}

// Word returns the replacement word and true, or "" and false.
func (c Correction) Word() (string, bool) {
	return c.word, c.corrected
}

// IsCorrected reports whether a replacement was found.
func (c Correction) IsCorrected() bool { return c.corrected }

func (c Correction) String() string {
	if !c.corrected {
		return "<uncorrected>"
	}
	return c.word
}
