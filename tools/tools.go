// Package tools registers the assistant's capabilities: GitHub issue and
// repository lookups and Azure DevOps WIQL queries.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hackbay/sembot/agent"
	"github.com/hackbay/sembot/azdo"
	"github.com/hackbay/sembot/github"
)

// SourceHost is the read side of the source-hosting service.
type SourceHost interface {
	ListRepoIssues(ctx context.Context, owner, repo string) ([]github.Issue, error)
	SearchRepositories(ctx context.Context, query string) ([]github.Repository, error)
}

// WorkTracker runs WIQL queries against the work-tracking service.
type WorkTracker interface {
	QueryWorkItems(ctx context.Context, wiql string) ([]azdo.WorkItem, error)
}

// RegisterAll adds the three capabilities to the registry.
func RegisterAll(reg *agent.Registry, gh SourceHost, tracker WorkTracker) error {
	all := []agent.Tool{
		{
			Name:        "get_all_issues_for_repo",
			Description: "Gets all issues for a specified repository owned by a certain GitHub user.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"owner": map[string]interface{}{
						"type":        "string",
						"description": "Owner of the repo",
					},
					"repo": map[string]interface{}{
						"type":        "string",
						"description": "The name of the repository",
					},
				},
				"required": []string{"owner", "repo"},
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				owner, err := stringArg(args, "owner")
				if err != nil {
					return "", err
				}
				repo, err := stringArg(args, "repo")
				if err != nil {
					return "", err
				}
				issues, err := gh.ListRepoIssues(ctx, owner, repo)
				if err != nil {
					return "", err
				}
				lines := make([]string, 0, len(issues))
				for _, i := range issues {
					lines = append(lines, fmt.Sprintf("%s - %s", i.Title, i.URL))
				}
				return formatList(lines), nil
			},
		},
		{
			Name:        "find_repo_by_name",
			Description: "Find repositories by name. The returned repos will include this substring (case insensitive).",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "String that we query GitHub for repos.",
					},
				},
				"required": []string{"query"},
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				query, err := stringArg(args, "query")
				if err != nil {
					return "", err
				}
				repos, err := gh.SearchRepositories(ctx, query)
				if err != nil {
					return "", err
				}
				lines := make([]string, 0, len(repos))
				for _, r := range repos {
					lines = append(lines, fmt.Sprintf("%s - %s", r.FullName, r.URL))
				}
				return formatList(lines), nil
			},
		},
		{
			Name:        "query_azure_devops",
			Description: "Query Azure DevOps for work items using WIQL (Work Item Query Language). Use this to fulfill a user request about work items that are managed in Azure DevOps.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"wiql_query": map[string]interface{}{
						"type":        "string",
						"description": "The WIQL query to be performed.",
					},
				},
				"required": []string{"wiql_query"},
			},
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				wiql, err := stringArg(args, "wiql_query")
				if err != nil {
					return "", err
				}
				items, err := tracker.QueryWorkItems(ctx, wiql)
				if err != nil {
					return "", err
				}
				data, err := json.Marshal(items)
				if err != nil {
					return "", fmt.Errorf("failed to encode work items: %w", err)
				}
				return string(data), nil
			},
		},
	}

	for _, tool := range all {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	return v, nil
}

func formatList(lines []string) string {
	return "[" + strings.Join(lines, ", ") + "]"
}
