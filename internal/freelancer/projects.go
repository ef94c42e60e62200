package freelancer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ActiveQuery narrows GET /projects/0.1/projects/active
type ActiveQuery struct {
	Query  string
	JobIDs []int
	Limit  int
	Offset int
}

type projectsResult struct {
	Projects []json.RawMessage `json:"projects"`
	Users    map[string]Owner  `json:"users"`
}

// ActiveProjects fetches active projects. Records failing validation are
// dropped; owner details from the users map are attached by owner_id.
func (c *Client) ActiveProjects(ctx context.Context, q ActiveQuery) ([]Project, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}

	params := url.Values{
		"limit":            {strconv.Itoa(q.Limit)},
		"job_details":      {"true"},
		"full_description": {"true"},
		"upgrade_details":  {"true"},
		"user_details":     {"true"},
		"user_reputation":  {"true"},
		"user_status":      {"true"},
		"compact":          {"false"},
		"sort_field":       {"time_updated"},
		"reverse_sort":     {"true"},
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Query != "" {
		params.Set("query", q.Query)
	}
	for _, id := range q.JobIDs {
		params.Add("jobs[]", strconv.Itoa(id))
	}

	var result projectsResult
	if _, err := c.do(ctx, "GET", "/projects/0.1/projects/active", params, nil, &result); err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(result.Projects))
	for _, raw := range result.Projects {
		p := ValidateProjectData(raw)
		if p == nil {
			continue
		}
		if p.Owner.ID == 0 && p.OwnerID != 0 {
			if owner, ok := result.Users[strconv.FormatInt(p.OwnerID, 10)]; ok {
				p.Owner = owner
			}
		}
		projects = append(projects, *p)
	}

	return projects, nil
}

// Project fetches a single project by ID
func (c *Client) Project(ctx context.Context, id int64) (*Project, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/projects/0.1/projects/%d", id)
	params := url.Values{
		"job_details":      {"true"},
		"full_description": {"true"},
		"upgrade_details":  {"true"},
	}
	if _, err := c.do(ctx, "GET", path, params, nil, &raw); err != nil {
		return nil, err
	}

	p := ValidateProjectData(raw)
	if p == nil {
		return nil, fmt.Errorf("project %d: incomplete payload", id)
	}
	return p, nil
}

// FetchBySkills runs one active-project query per skill, BatchSize at a
// time with BatchDelay between batches, and merges results by project ID.
// Failures for individual skills are logged and skipped; an invalid token
// aborts the whole fetch.
func (c *Client) FetchBySkills(ctx context.Context, skills []string, perSkill int) ([]Project, error) {
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	var (
		mu     sync.Mutex
		seen   = make(map[int64]bool)
		merged []Project
	)

	for start := 0; start < len(skills); start += batchSize {
		end := min(start+batchSize, len(skills))

		g, gctx := errgroup.WithContext(ctx)
		for _, skill := range skills[start:end] {
			g.Go(func() error {
				projects, err := c.ActiveProjects(gctx, ActiveQuery{Query: skill, Limit: perSkill})
				if err != nil {
					if errors.Is(err, ErrInvalidToken) {
						return err
					}
					log.Warn().Err(err).Str("skill", skill).Msg("Skill fetch failed")
					return nil
				}

				mu.Lock()
				defer mu.Unlock()
				for _, p := range projects {
					if !seen[p.ID] {
						seen[p.ID] = true
						merged = append(merged, p)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return merged, err
		}

		if end < len(skills) && c.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return merged, ctx.Err()
			case <-time.After(c.BatchDelay):
			}
		}
	}

	log.Debug().Int("skills", len(skills)).Int("projects", len(merged)).Msg("Fetched projects by skill")
	return merged, nil
}
