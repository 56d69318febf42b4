package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WithCache memoizes successful responses per request. Errors are never
// cached. A non-positive size or ttl disables caching.
func WithCache(p IProvider, size int, ttl time.Duration) IProvider {
	if p == nil || size <= 0 || ttl <= 0 {
		return p
	}
	return &cachedProvider{
		next:  p,
		cache: expirable.NewLRU[string, Response](size, nil, ttl),
	}
}

type cachedProvider struct {
	next  IProvider
	cache *expirable.LRU[string, Response]
}

func (c *cachedProvider) Name() string {
	return c.next.Name()
}

func (c *cachedProvider) Search(ctx context.Context, req Request) (*Response, error) {
	key, err := requestKey(c.next.Name(), req)
	if err != nil {
		return c.next.Search(ctx, req)
	}
	if cached, ok := c.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("search cache hit", zap.String("query", req.Query))
		return cloneResponse(cached), nil
	}
	resp, err := c.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, *cloneResponse(*resp))
	return resp, nil
}

func requestKey(provider string, req Request) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(provider+"\x00"), raw...))
	return hex.EncodeToString(sum[:]), nil
}

func cloneResponse(resp Response) *Response {
	out := resp
	out.Results = append([]Result(nil), resp.Results...)
	return &out
}
