package source

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/pders01/sift/internal/post"
)

var errNotArray = errors.New("parsing posts: expected a JSON array")

// decodePosts reads a JSON array of post objects. The id may be a number or
// a string; it is kept in its textual form.
func decodePosts(data []byte) ([]post.Post, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parsing posts: invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errNotArray
	}

	items := root.Array()
	posts := make([]post.Post, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		posts = append(posts, post.Post{
			ID:     item.Get("id").String(),
			UserID: int(item.Get("userId").Int()),
			Title:  item.Get("title").String(),
			Body:   item.Get("body").String(),
		})
	}
	return posts, nil
}
