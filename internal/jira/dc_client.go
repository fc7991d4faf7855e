package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const commentPageSize = 100

type dcClient struct {
	cfg        Config
	httpClient *http.Client

	throttleMutex sync.Mutex
	lastRequest   time.Time

	// Session Cache
	cache      map[string]*cacheEntry
	cacheMutex sync.RWMutex
}

type cacheEntry struct {
	Value       []byte
	Expiration  time.Time
	AccessCount int
	OriginalTTL time.Duration
}

// NewDataCenterClient returns a client speaking the Jira REST v2 API.
// A zero RequestDelay disables throttling.
func NewDataCenterClient(cfg Config) Client {
	if cfg.Fields.Sprint == "" && cfg.Fields.StoryPoints == "" {
		cfg.Fields = DefaultFieldMap()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &dcClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		cache: make(map[string]*cacheEntry),
	}
}

func (c *dcClient) getFromCache(key string) ([]byte, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}

	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")

	// Sliding window extension
	if entry.AccessCount < 6 {
		entry.Expiration = time.Now().Add(entry.OriginalTTL)
		entry.AccessCount++
		log.Trace().Str("key", key).Int("count", entry.AccessCount).Msg("Extended cache TTL")
	}

	return entry.Value, true
}

func (c *dcClient) addToCache(key string, value []byte, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Value:       value,
		Expiration:  time.Now().Add(ttl),
		OriginalTTL: ttl,
		AccessCount: 1,
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}

// throttle spaces consecutive requests by RequestDelay. Concurrent callers
// queue on the mutex.
func (c *dcClient) throttle(ctx context.Context) error {
	c.throttleMutex.Lock()
	defer c.throttleMutex.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling Jira request")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (c *dcClient) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
		return
	}

	// 2. Fallback to session cookies
	cookies := []struct {
		name  string
		value string
	}{
		{"atlassian.xsrf.token", c.cfg.XsrfToken},
		{"JSESSIONID", c.cfg.SessionID},
		{"seraph.rememberme.cookie", c.cfg.RememberMe},
		{"GCILB", c.cfg.GCILB},
		{"GCLB", c.cfg.GCLB},
	}

	var cookiePairs []string
	for _, cookie := range cookies {
		if cookie.value != "" {
			// Built by hand: net/http's RFC 6265 validation drops GCLB values containing double quotes.
			cookiePairs = append(cookiePairs, fmt.Sprintf("%s=%s", cookie.name, cookie.value))
		}
	}

	if len(cookiePairs) > 0 {
		req.Header.Set("Cookie", strings.Join(cookiePairs, "; "))
	}
}

// get performs an authenticated, throttled GET and returns the raw body.
// what names the resource in error messages.
func (c *dcClient) get(ctx context.Context, path string, params url.Values, what string, ttl time.Duration) ([]byte, error) {
	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	if body, ok := c.getFromCache(reqURL); ok {
		return body, nil
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	log.Debug().Str("url", reqURL).Msg("Requesting from Jira")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.authenticateRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%s not found", what)
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("Jira authentication failed (401/403). Please check your token or session cookies.")
		case http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			if retryAfter != "" {
				return nil, fmt.Errorf("Jira rate limit exceeded (429). Retry after %s seconds.", retryAfter)
			}
			return nil, fmt.Errorf("Jira rate limit exceeded (429).")
		default:
			return nil, fmt.Errorf("Jira API returned status %d for %s", resp.StatusCode, what)
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", what, err)
	}
	if ttl > 0 {
		c.addToCache(reqURL, body, ttl)
	}
	return body, nil
}

func (c *dcClient) fieldList() string {
	fields := []string{"summary", "issuetype", "status", "created", "updated"}
	if c.cfg.Fields.Sprint != "" {
		fields = append(fields, c.cfg.Fields.Sprint)
	}
	if c.cfg.Fields.StoryPoints != "" {
		fields = append(fields, c.cfg.Fields.StoryPoints)
	}
	return strings.Join(fields, ",")
}

func (c *dcClient) GetIssue(ctx context.Context, key string) (*IssueDTO, error) {
	params := url.Values{}
	params.Set("expand", "changelog")
	params.Set("fields", c.fieldList())

	log.Info().Str("issue", key).Msg("Requesting issue from Jira")
	body, err := c.get(ctx, "/rest/api/2/issue/"+url.PathEscape(key), params, "issue "+key, 5*time.Minute)
	if err != nil {
		return nil, err
	}

	issue, err := DecodeIssue(body, c.cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode issue %s: %w", key, err)
	}
	return issue, nil
}

func (c *dcClient) GetComments(ctx context.Context, key string) ([]CommentDTO, error) {
	var all []CommentDTO
	startAt := 0
	for {
		params := url.Values{}
		params.Set("startAt", fmt.Sprintf("%d", startAt))
		params.Set("maxResults", fmt.Sprintf("%d", commentPageSize))

		body, err := c.get(ctx, "/rest/api/2/issue/"+url.PathEscape(key)+"/comment", params, "comments of "+key, 5*time.Minute)
		if err != nil {
			return nil, err
		}

		var page CommentsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode comments of %s: %w", key, err)
		}
		all = append(all, page.Comments...)

		startAt += len(page.Comments)
		if len(page.Comments) == 0 || startAt >= page.Total {
			break
		}
	}
	log.Debug().Str("issue", key).Int("count", len(all)).Msg("Fetched comments")
	return all, nil
}

func (c *dcClient) SearchIssues(ctx context.Context, jql string, startAt int, maxResults int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", fmt.Sprintf("%d", startAt))
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("fields", c.fieldList())
	params.Set("expand", "changelog")

	log.Info().Msg("Requesting issues from Jira")
	log.Debug().Str("jql", jql).Msg("Jira search details")
	body, err := c.get(ctx, "/rest/api/2/search", params, "search", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	result, err := DecodeSearch(body, c.cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Jira response: %w", err)
	}
	return result, nil
}

func (c *dcClient) BrowseURL(key string) string {
	return c.cfg.BaseURL + "/browse/" + url.PathEscape(key)
}
