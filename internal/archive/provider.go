package archive

import (
	"context"
	"fmt"
	"time"

	"jira-assess/internal/jira"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	searchBatchSize = 100
	commentWorkers  = 4
)

// Provider fetches issues from Jira into a Store and keeps the on-disk
// archive in step.
type Provider struct {
	client jira.Client
	store  *Store
	dir    string
	now    func() time.Time
}

// NewProvider returns a Provider. An empty dir disables persistence.
func NewProvider(client jira.Client, store *Store, dir string) *Provider {
	return &Provider{
		client: client,
		store:  store,
		dir:    dir,
		now:    time.Now,
	}
}

// Store returns the backing store.
func (p *Provider) Store() *Store {
	return p.store
}

// Open loads the archived records of a source, if any.
func (p *Provider) Open(sourceID string) error {
	if p.dir == "" {
		return nil
	}
	return p.store.Load(p.dir, sourceID)
}

// Fetch retrieves the given issues with their comments, archives them and
// returns the records in argument order.
func (p *Provider) Fetch(ctx context.Context, sourceID string, keys ...string) ([]Record, error) {
	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		issue, err := p.client.GetIssue(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", key, err)
		}
		r, err := p.withComments(ctx, *issue)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	p.store.Put(sourceID, records...)
	p.persist(sourceID)
	return records, nil
}

// Search pages through a JQL query, archiving every match with its comments,
// until the results run out or limit records were collected. A limit of zero
// or less means no limit.
func (p *Provider) Search(ctx context.Context, sourceID, jql string, limit int) ([]Record, error) {
	var records []Record
	startAt := 0
	for {
		pageSize := searchBatchSize
		if limit > 0 && limit-len(records) < pageSize {
			pageSize = limit - len(records)
		}

		resp, err := p.client.SearchIssues(ctx, jql, startAt, pageSize)
		if err != nil {
			return nil, fmt.Errorf("search failed at offset %d: %w", startAt, err)
		}
		if len(resp.Issues) == 0 {
			break
		}

		page, err := p.pageWithComments(ctx, resp.Issues)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		startAt += len(resp.Issues)

		if (limit > 0 && len(records) >= limit) || startAt >= resp.Total || len(resp.Issues) < pageSize {
			break
		}
	}

	p.store.Put(sourceID, records...)
	p.persist(sourceID)
	log.Info().Str("source", sourceID).Int("total", len(records)).Msg("Search ingestion complete")
	return records, nil
}

// pageWithComments loads the comments of a search page concurrently,
// keeping the page order.
func (p *Provider) pageWithComments(ctx context.Context, issues []jira.IssueDTO) ([]Record, error) {
	page := make([]Record, len(issues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentWorkers)
	for i, issue := range issues {
		g.Go(func() error {
			r, err := p.withComments(gctx, issue)
			if err != nil {
				return err
			}
			page[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

func (p *Provider) withComments(ctx context.Context, issue jira.IssueDTO) (Record, error) {
	comments, err := p.client.GetComments(ctx, issue.Key)
	if err != nil {
		return Record{}, fmt.Errorf("comments of %s: %w", issue.Key, err)
	}
	return Record{
		Key:   issue.Key,
		Issue: issue,
		Comments: jira.CommentsResponse{
			MaxResults: len(comments),
			Total:      len(comments),
			Comments:   comments,
		},
		FetchedAt: p.now().UTC(),
	}, nil
}

func (p *Provider) persist(sourceID string) {
	if p.dir == "" {
		return
	}
	if err := p.store.Save(p.dir, sourceID); err != nil {
		log.Warn().Err(err).Str("source", sourceID).Msg("Failed to save archive")
	}
}
