package azdo

import (
	"context"
	"fmt"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
)

// WorkItem is the subset of an Azure DevOps work item the assistant reports.
type WorkItem struct {
	Type          string `json:"work_item_type"`
	ID            int    `json:"ado_id"`
	Name          string `json:"name"`
	AssigneeEmail string `json:"resource_email"`
	Link          string `json:"link"`
}

// Client runs WIQL queries against one Azure DevOps organization/project.
type Client struct {
	wit     workitemtracking.Client
	org     string
	project string
}

// NewClient connects to dev.azure.com with a personal access token.
func NewClient(ctx context.Context, org, project, pat string) (*Client, error) {
	conn := azuredevops.NewPatConnection("https://dev.azure.com/"+org, pat)
	wit, err := workitemtracking.NewClient(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create work item tracking client: %w", err)
	}
	return &Client{wit: wit, org: org, project: project}, nil
}

// QueryWorkItems executes a WIQL query and fetches each matching item's
// details, order preserved from the query result.
func (c *Client) QueryWorkItems(ctx context.Context, wiql string) ([]WorkItem, error) {
	result, err := c.wit.QueryByWiql(ctx, workitemtracking.QueryByWiqlArgs{
		Wiql:    &workitemtracking.Wiql{Query: &wiql},
		Project: &c.project,
	})
	if err != nil {
		return nil, fmt.Errorf("WIQL query failed: %w", err)
	}
	if result.WorkItems == nil {
		return []WorkItem{}, nil
	}

	items := make([]WorkItem, 0, len(*result.WorkItems))
	for _, ref := range *result.WorkItems {
		if ref.Id == nil {
			continue
		}
		item, err := c.fetchWorkItem(ctx, *ref.Id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) fetchWorkItem(ctx context.Context, id int) (WorkItem, error) {
	wi, err := c.wit.GetWorkItem(ctx, workitemtracking.GetWorkItemArgs{
		Id:     &id,
		Expand: &workitemtracking.WorkItemExpandValues.All,
	})
	if err != nil {
		return WorkItem{}, fmt.Errorf("failed to fetch work item %d: %w", id, err)
	}

	var fields map[string]interface{}
	if wi.Fields != nil {
		fields = *wi.Fields
	}
	return newWorkItem(id, fields, c.org, c.project), nil
}

// newWorkItem maps the loosely typed field bag onto a WorkItem. Missing
// fields come out as empty strings.
func newWorkItem(id int, fields map[string]interface{}, org, project string) WorkItem {
	item := WorkItem{
		ID:   id,
		Link: fmt.Sprintf("https://dev.azure.com/%s/%s/_workitems/edit/%d", org, project, id),
	}
	if v, ok := fields["System.WorkItemType"].(string); ok {
		item.Type = v
	}
	if v, ok := fields["System.Title"].(string); ok {
		item.Name = v
	}
	if assigned, ok := fields["System.AssignedTo"].(map[string]interface{}); ok {
		if v, ok := assigned["uniqueName"].(string); ok {
			item.AssigneeEmail = v
		}
	}
	return item
}
