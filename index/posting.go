package index

// PostingEntry records the TF-IDF weight a term carries in one dictionary entry.
type PostingEntry struct {
	DocID  int     // Position of the entry in the corpus
	Weight float64 // L2-normalised TF-IDF weight of the term in that entry
}

// PostingList holds the postings of one vocabulary term in ascending DocID order.
type PostingList []PostingEntry

// weightedTerm is one non-zero dimension of a sparse vector.
type weightedTerm struct {
	Dim    int
	Weight float64
}

// sparseVector is a vector stored as its non-zero dimensions in ascending Dim order.
type sparseVector []weightedTerm
