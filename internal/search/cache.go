package search

import "github.com/mmcdole/postbrowser/internal/domain"

// Cache memoizes the last Filter result.
// Callers bump the generation whenever they replace the post slice;
// the slice contents are never compared.
type Cache struct {
	valid      bool
	generation uint64
	query      string
	mode       Mode
	result     []domain.Post
}

// Filter returns the cached result when (generation, query, mode) is unchanged
func (c *Cache) Filter(posts []domain.Post, generation uint64, query string, mode Mode) []domain.Post {
	if c.valid && c.generation == generation && c.query == query && c.mode == mode {
		return c.result
	}

	c.result = Filter(posts, query, mode)
	c.generation = generation
	c.query = query
	c.mode = mode
	c.valid = true
	return c.result
}

// Invalidate drops the cached result
func (c *Cache) Invalidate() {
	c.valid = false
	c.result = nil
}
