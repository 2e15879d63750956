package post

// Post is a single record from the remote collection. Posts are never
// mutated after decoding.
type Post struct {
	ID     string `json:"id"`
	UserID int    `json:"userId,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Batch is the ordered page of posts currently held by the client.
type Batch struct {
	Page   int    `json:"page"`
	Offset int    `json:"offset"`
	Posts  []Post `json:"posts"`
}

func (b Batch) Len() int {
	return len(b.Posts)
}

func (b Batch) Empty() bool {
	return len(b.Posts) == 0
}
