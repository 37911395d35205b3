package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kazz187/tracksync/pkg/cerr"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"
)

// GitHub implements Client against the GitHub REST and GraphQL APIs.
// Issues are created over REST; project board operations go through the
// Projects v2 GraphQL mutations.
type GitHub struct {
	httpClient *http.Client
	token      string
	baseURL    string
	graphqlURL string
}

type GitHubOption func(*GitHub)

func WithHTTPClient(c *http.Client) GitHubOption {
	return func(g *GitHub) {
		g.httpClient = c
	}
}

// WithBaseURL points the client at a different API host (GHE, tests).
func WithBaseURL(base string) GitHubOption {
	return func(g *GitHub) {
		g.baseURL = base
		g.graphqlURL = base + "/graphql"
	}
}

func NewGitHub(token string, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    defaultAPIBaseURL,
		graphqlURL: defaultGraphQLURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GitHub) CreateItem(ctx context.Context, collection CollectionRef, payload ItemPayload) (ItemRef, error) {
	body := map[string]any{
		"title": payload.Title,
		"body":  payload.Body,
	}
	if len(payload.Labels) > 0 {
		body["labels"] = payload.Labels
	}

	var resp struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
		NodeID  string `json:"node_id"`
	}
	url := fmt.Sprintf("%s/repos/%s/%s/issues", g.baseURL, collection.Owner, collection.Repo)
	if err := g.rest(ctx, http.MethodPost, url, body, &resp); err != nil {
		return ItemRef{}, err
	}
	return ItemRef{Number: resp.Number, URL: resp.HTMLURL, NodeID: resp.NodeID}, nil
}

func (g *GitHub) GetItem(ctx context.Context, collection CollectionRef, number int) (*TrackedItem, error) {
	var resp struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		State  string `json:"state"`
		Labels []struct {
			Name string `json:"name"`
		} `json:"labels"`
		ClosedAt *time.Time `json:"closed_at"`
	}
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d", g.baseURL, collection.Owner, collection.Repo, number)
	if err := g.rest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	item := TrackedItem{
		Number:   resp.Number,
		Title:    resp.Title,
		State:    resp.State,
		ClosedAt: resp.ClosedAt,
	}
	for _, l := range resp.Labels {
		item.Labels = append(item.Labels, l.Name)
	}
	return &item, nil
}

func (g *GitHub) AddItemToCollection(ctx context.Context, collectionID, itemNodeID string) (string, error) {
	const mutation = `mutation($projectId: ID!, $contentId: ID!) {
		addProjectV2ItemById(input: {projectId: $projectId, contentId: $contentId}) {
			item { id }
		}
	}`
	var resp struct {
		AddProjectV2ItemByID struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"addProjectV2ItemById"`
	}
	vars := map[string]any{"projectId": collectionID, "contentId": itemNodeID}
	if err := g.graphql(ctx, mutation, vars, &resp); err != nil {
		return "", err
	}
	return resp.AddProjectV2ItemByID.Item.ID, nil
}

func (g *GitHub) SetItemField(ctx context.Context, collectionID, collectionItemID, fieldID, optionID string) error {
	const mutation = `mutation($projectId: ID!, $itemId: ID!, $fieldId: ID!, $optionId: String!) {
		updateProjectV2ItemFieldValue(input: {
			projectId: $projectId, itemId: $itemId, fieldId: $fieldId,
			value: {singleSelectOptionId: $optionId}
		}) {
			projectV2Item { id }
		}
	}`
	vars := map[string]any{
		"projectId": collectionID,
		"itemId":    collectionItemID,
		"fieldId":   fieldID,
		"optionId":  optionID,
	}
	return g.graphql(ctx, mutation, vars, &struct{}{})
}

func (g *GitHub) ListCollectionItems(ctx context.Context, collectionID string) ([]TrackedItem, error) {
	const query = `query($projectId: ID!, $cursor: String) {
		node(id: $projectId) {
			... on ProjectV2 {
				items(first: 100, after: $cursor) {
					pageInfo { hasNextPage endCursor }
					nodes {
						content {
							... on Issue {
								number title state closedAt
								labels(first: 20) { nodes { name } }
							}
						}
					}
				}
			}
		}
	}`

	var items []TrackedItem
	var cursor *string
	for {
		var resp struct {
			Node struct {
				Items struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []struct {
						Content struct {
							Number   int        `json:"number"`
							Title    string     `json:"title"`
							State    string     `json:"state"`
							ClosedAt *time.Time `json:"closedAt"`
							Labels   struct {
								Nodes []struct {
									Name string `json:"name"`
								} `json:"nodes"`
							} `json:"labels"`
						} `json:"content"`
					} `json:"nodes"`
				} `json:"items"`
			} `json:"node"`
		}
		vars := map[string]any{"projectId": collectionID, "cursor": cursor}
		if err := g.graphql(ctx, query, vars, &resp); err != nil {
			return nil, err
		}
		for _, n := range resp.Node.Items.Nodes {
			if n.Content.Number == 0 {
				continue
			}
			item := TrackedItem{
				Number:   n.Content.Number,
				Title:    n.Content.Title,
				State:    n.Content.State,
				ClosedAt: n.Content.ClosedAt,
			}
			for _, l := range n.Content.Labels.Nodes {
				item.Labels = append(item.Labels, l.Name)
			}
			items = append(items, item)
		}
		if !resp.Node.Items.PageInfo.HasNextPage {
			return items, nil
		}
		c := resp.Node.Items.PageInfo.EndCursor
		cursor = &c
	}
}

func (g *GitHub) rest(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		content, err := json.Marshal(body)
		if err != nil {
			return cerr.NewError(cerr.Internal, "failed to marshal request", err)
		}
		reader = bytes.NewReader(content)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return cerr.NewError(cerr.Unavailable, "tracker request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return cerr.NewError(cerr.Internal, "failed to decode tracker response", err)
		}
	}
	return nil
}

func (g *GitHub) graphql(ctx context.Context, query string, vars map[string]any, out any) error {
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	body := map[string]any{"query": query, "variables": vars}
	if err := g.rest(ctx, http.MethodPost, g.graphqlURL, body, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		e := resp.Errors[0]
		code := cerr.Internal
		switch e.Type {
		case "NOT_FOUND":
			code = cerr.NotFound
		case "FORBIDDEN":
			code = cerr.PermissionDenied
		case "INSUFFICIENT_SCOPES":
			code = cerr.PermissionDenied
		}
		return cerr.NewError(code, e.Message, nil)
	}
	if out != nil && resp.Data != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return cerr.NewError(cerr.Internal, "failed to decode tracker response", err)
		}
	}
	return nil
}

// statusError maps HTTP failure statuses to coded errors, keeping the API's
// own message when the body carries one.
func statusError(resp *http.Response) error {
	var apiErr struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return cerr.NewError(cerr.Unauthenticated, msg, nil)
	case http.StatusForbidden:
		return cerr.NewError(cerr.PermissionDenied, msg, nil)
	case http.StatusNotFound:
		return cerr.NewError(cerr.NotFound, msg, nil)
	case http.StatusUnprocessableEntity:
		return cerr.NewError(cerr.InvalidArgument, msg, nil)
	default:
		if resp.StatusCode >= 500 {
			return cerr.NewError(cerr.Unavailable, msg, nil)
		}
		return cerr.NewError(cerr.Unknown, msg, nil)
	}
}
