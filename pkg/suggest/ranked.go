package suggest

// Suggestion is one ranked word.
type Suggestion struct {
	Word  string
	Score int
}

type entry struct {
	word   string
	length int
	score  int
}

// ranked is a fixed-capacity top-K buffer kept sorted by descending score,
// shorter words first on ties. A zero score marks the first unused slot.
type ranked struct {
	entries []entry
	maxLen  int
}

func newRanked(maxWords, maxWordLength int) *ranked {
	return &ranked{
		entries: make([]entry, maxWords),
		maxLen:  maxWordLength,
	}
}

// slot returns the rank a candidate would take, or -1 if it does not qualify.
func (r *ranked) slot(length, score int) int {
	if score <= 0 || length == 0 || length > r.maxLen {
		return -1
	}
	for i, e := range r.entries {
		if score > e.score || (score == e.score && length <= e.length) {
			return i
		}
	}
	return -1
}

// add inserts word at its rank. A word already in the buffer keeps the better
// of its two scores. It reports whether the buffer changed.
func (r *ranked) add(word []rune, score int) bool {
	if r.slot(len(word), score) < 0 {
		return false
	}
	return r.addString(string(word), len(word), score)
}

func (r *ranked) addString(word string, length, score int) bool {
	if r.slot(length, score) < 0 {
		return false
	}
	for i := 0; i < len(r.entries) && r.entries[i].score > 0; i++ {
		if r.entries[i].word != word {
			continue
		}
		if r.entries[i].score >= score {
			return false
		}
		copy(r.entries[i:], r.entries[i+1:])
		r.entries[len(r.entries)-1] = entry{}
		break
	}
	at := r.slot(length, score)
	copy(r.entries[at+1:], r.entries[at:len(r.entries)-1])
	r.entries[at] = entry{word: word, length: length, score: score}
	return true
}

// count returns the number of leading used slots.
func (r *ranked) count() int {
	n := 0
	for n < len(r.entries) && r.entries[n].score > 0 {
		n++
	}
	return n
}

func (r *ranked) suggestions() []Suggestion {
	n := r.count()
	out := make([]Suggestion, n)
	for i := 0; i < n; i++ {
		out[i] = Suggestion{Word: r.entries[i].word, Score: r.entries[i].score}
	}
	return out
}
