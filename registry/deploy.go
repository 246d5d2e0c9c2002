package registry

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Deployment describes a job whose image the service should deploy.
type Deployment struct {
	Name        string
	Description string
	RunType     RunType
	// Slug identifies an existing job to update; it lets a job be renamed.
	Slug string
	// Image is the full, already published image tag.
	Image string
	// Module is the package containing the flow function.
	Module string
	// Function is the flow entry point.
	Function string
}

type deployRequest struct {
	Image       string `json:"image"`
	FlowPackage string `json:"flow_package"`
	Flow        string `json:"flow"`
}

type deploymentPayload struct {
	Name             string        `json:"name"`
	Description      string        `json:"description,omitempty"`
	RunType          RunType       `json:"run_type"`
	Slug             string        `json:"slug,omitempty"`
	JobDeployRequest deployRequest `json:"job_deploy_request"`
}

// deployURL is the authenticated /api endpoint when an API key is set.
func (c *Client) deployURL() string {
	if c.apiKey != "" {
		return c.base + "/api/jobs/create_or_update"
	}
	return c.base + "/jobs/v2/create_or_update"
}

// CreateOrUpdateDeployment creates or updates a job and its deployment. A 202
// response means the deployment is still running: its Location is fetched at
// once, then every poll interval until the service answers with anything other
// than 202, and that final response is returned. Cancelling ctx stops polling.
func (c *Client) CreateOrUpdateDeployment(ctx context.Context, d Deployment) (map[string]any, error) {
	body, err := json.Marshal(deploymentPayload{
		Name:        d.Name,
		Description: d.Description,
		RunType:     d.RunType,
		Slug:        d.Slug,
		JobDeployRequest: deployRequest{
			Image:       d.Image,
			FlowPackage: d.Module,
			Flow:        d.Function,
		},
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, c.deployURL(), body, c.deployTimeout)
	if err != nil {
		return nil, err
	}
	for polls := 0; resp.status == http.StatusAccepted && resp.location != ""; polls++ {
		c.log.Info("waiting for deployment", zap.String("location", resp.location), zap.Int("polls", polls))
		if polls > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}
		resp, err = c.do(ctx, http.MethodGet, c.resolve(resp.location), nil, c.deployTimeout)
		if err != nil {
			return nil, err
		}
	}
	return decode(resp.body)
}
