package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

type Client struct {
	api *gh.Client
}

func NewClient(token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &Client{api: gh.NewClient(httpClient)}
}

// Issue is one open or closed issue of a repository.
type Issue struct {
	Title string
	URL   string
}

// Repository is one search hit.
type Repository struct {
	FullName string
	URL      string
}

// ListRepoIssues returns the issues of owner/repo. A repository with no
// issues yields an empty list, not an error.
func (c *Client) ListRepoIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	issues, _, err := c.api.Issues.ListByRepo(ctx, owner, repo, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for %s/%s: %w", owner, repo, err)
	}

	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, Issue{Title: i.GetTitle(), URL: i.GetHTMLURL()})
	}
	return out, nil
}

// SearchRepositories finds repositories whose name contains the query
// substring, order preserved from the API response.
func (c *Client) SearchRepositories(ctx context.Context, query string) ([]Repository, error) {
	result, _, err := c.api.Search.Repositories(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories for %q: %w", query, err)
	}

	out := make([]Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		out = append(out, Repository{FullName: r.GetFullName(), URL: r.GetHTMLURL()})
	}
	return out, nil
}
