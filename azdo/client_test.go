package azdo

import (
	"context"
	"fmt"
	"testing"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
	"github.com/stretchr/testify/require"
)

// fakeWIT scripts the two SDK calls the client makes; the embedded
// interface covers the rest.
type fakeWIT struct {
	workitemtracking.Client

	queryResult *workitemtracking.WorkItemQueryResult
	queryErr    error
	items       map[int]map[string]interface{}
}

func (f *fakeWIT) QueryByWiql(ctx context.Context, args workitemtracking.QueryByWiqlArgs) (*workitemtracking.WorkItemQueryResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResult, nil
}

func (f *fakeWIT) GetWorkItem(ctx context.Context, args workitemtracking.GetWorkItemArgs) (*workitemtracking.WorkItem, error) {
	fields, ok := f.items[*args.Id]
	if !ok {
		return nil, fmt.Errorf("TF401232: work item %d does not exist", *args.Id)
	}
	return &workitemtracking.WorkItem{Id: args.Id, Fields: &fields}, nil
}

func intPtr(i int) *int { return &i }

func TestQueryWorkItems(t *testing.T) {
	refs := []workitemtracking.WorkItemReference{{Id: intPtr(7)}, {Id: intPtr(12)}}
	c := &Client{
		org:     "acme",
		project: "platform",
		wit: &fakeWIT{
			queryResult: &workitemtracking.WorkItemQueryResult{WorkItems: &refs},
			items: map[int]map[string]interface{}{
				7: {
					"System.WorkItemType": "Feature",
					"System.Title":        "Login flow",
					"System.AssignedTo":   map[string]interface{}{"uniqueName": "dev@acme.com"},
				},
				12: {
					"System.WorkItemType": "Bug",
					"System.Title":        "Crash on save",
				},
			},
		},
	}

	items, err := c.QueryWorkItems(context.Background(), "SELECT [System.Id] FROM workitems")
	require.NoError(t, err)
	require.Equal(t, []WorkItem{
		{
			Type:          "Feature",
			ID:            7,
			Name:          "Login flow",
			AssigneeEmail: "dev@acme.com",
			Link:          "https://dev.azure.com/acme/platform/_workitems/edit/7",
		},
		{
			Type: "Bug",
			ID:   12,
			Name: "Crash on save",
			Link: "https://dev.azure.com/acme/platform/_workitems/edit/12",
		},
	}, items)
}

func TestQueryWorkItemsEmptyResult(t *testing.T) {
	empty := []workitemtracking.WorkItemReference{}
	c := &Client{
		org:     "acme",
		project: "platform",
		wit:     &fakeWIT{queryResult: &workitemtracking.WorkItemQueryResult{WorkItems: &empty}},
	}

	items, err := c.QueryWorkItems(context.Background(), "SELECT [System.Id] FROM workitems")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestQueryWorkItemsQueryError(t *testing.T) {
	c := &Client{
		org:     "acme",
		project: "platform",
		wit:     &fakeWIT{queryErr: fmt.Errorf("VS402337: syntax error")},
	}

	_, err := c.QueryWorkItems(context.Background(), "SELEKT")
	require.Error(t, err)
	require.Contains(t, err.Error(), "WIQL query failed")
}

func TestQueryWorkItemsDetailError(t *testing.T) {
	refs := []workitemtracking.WorkItemReference{{Id: intPtr(99)}}
	c := &Client{
		org:     "acme",
		project: "platform",
		wit:     &fakeWIT{queryResult: &workitemtracking.WorkItemQueryResult{WorkItems: &refs}, items: map[int]map[string]interface{}{}},
	}

	_, err := c.QueryWorkItems(context.Background(), "SELECT [System.Id] FROM workitems")
	require.Error(t, err)
	require.Contains(t, err.Error(), "work item 99")
}
