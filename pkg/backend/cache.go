package backend

import (
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vcgate/vcgate/pkg/proto"
)

// cache keeps repositories by name. Entries are copied in and out so
// callers can't mutate cached values.
type cache struct {
	b     *Backend
	repos *lru.Cache[string, proto.Repository]
}

func newCache(b *Backend, size int) *cache {
	if size <= 0 {
		size = 1
	}
	c := &cache{b: b}
	cache, _ := lru.New[string, proto.Repository](size)
	c.repos = cache
	return c
}

func (c *cache) Get(repo string) (*proto.Repository, bool) {
	r, ok := c.repos.Get(repo)
	if !ok {
		return nil, false
	}
	r.Data = maps.Clone(r.Data)
	return &r, true
}

func (c *cache) Set(r *proto.Repository) {
	v := *r
	v.Data = maps.Clone(r.Data)
	c.repos.Add(r.Name, v)
}

func (c *cache) Delete(repo string) {
	c.repos.Remove(repo)
}

func (c *cache) Len() int {
	return c.repos.Len()
}
