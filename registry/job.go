package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/reoring/mdform/node"
)

// RunType is the dataset type a job runs against.
type RunType string

const (
	RunTypeIntensity    RunType = "INTENSITY"
	RunTypeDoseResponse RunType = "DOSE_RESPONSE"
	RunTypePairwise     RunType = "PAIRWISE"
	RunTypeANOVA        RunType = "ANOVA"
)

// RunTypes lists every known run type.
func RunTypes() []RunType {
	return []RunType{RunTypeIntensity, RunTypeDoseResponse, RunTypePairwise, RunTypeANOVA}
}

// ParseRunType parses a run type name, ignoring case and surrounding space.
func ParseRunType(s string) (RunType, error) {
	want := RunType(strings.ToUpper(strings.TrimSpace(s)))
	for _, rt := range RunTypes() {
		if rt == want {
			return rt, nil
		}
	}
	return "", fmt.Errorf("registry: unknown run type %q", s)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a job name to a URL-friendly identifier:
// "Hello World!" -> "hello_world".
func Slug(name string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// Job describes a job registration.
type Job struct {
	Name        string
	Description string
	// Function is the flow entry point; with Deployment it forms
	// flow_and_deployment_name ("<function>/<deployment>").
	Function   string
	Deployment string
	RunType    RunType
	// Params is the legacy parameter schema, sent untouched.
	Params node.Node
	// Form is the translated parameter form, sent as params_new.
	Form      *node.Object
	Published bool
}

// Slug returns the slug the job is registered under.
func (j Job) Slug() string { return Slug(j.Name) }

// FlowAndDeploymentName returns "<function>/<deployment>".
func (j Job) FlowAndDeploymentName() string {
	return j.Function + "/" + j.Deployment
}

type jobPayload struct {
	Name                  string          `json:"name"`
	Slug                  string          `json:"slug"`
	Description           string          `json:"description"`
	FlowAndDeploymentName string          `json:"flow_and_deployment_name"`
	RunType               RunType         `json:"run_type"`
	Params                json.RawMessage `json:"params"`
	ParamsNew             json.RawMessage `json:"params_new"`
	Published             bool            `json:"published"`
}

func (j Job) payload() ([]byte, error) {
	params, err := rawNode(j.Params)
	if err != nil {
		return nil, fmt.Errorf("registry: encode params: %w", err)
	}
	var form node.Node
	if j.Form != nil {
		form = j.Form
	}
	paramsNew, err := rawNode(form)
	if err != nil {
		return nil, fmt.Errorf("registry: encode params_new: %w", err)
	}
	return json.Marshal(jobPayload{
		Name:                  j.Name,
		Slug:                  j.Slug(),
		Description:           j.Description,
		FlowAndDeploymentName: j.FlowAndDeploymentName(),
		RunType:               j.RunType,
		Params:                params,
		ParamsNew:             paramsNew,
		Published:             j.Published,
	})
}

func rawNode(n node.Node) (json.RawMessage, error) {
	if n == nil {
		return json.RawMessage("null"), nil
	}
	b, err := node.Marshal(n)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// Digest returns the hex sha256 of a request payload.
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// CreateOrUpdateJob posts job to /jobs/create_or_update and returns the
// decoded response. With a digest store configured, an unchanged payload is not
// sent and ErrUnchanged is returned.
func (c *Client) CreateOrUpdateJob(ctx context.Context, job Job) (map[string]any, error) {
	body, err := job.payload()
	if err != nil {
		return nil, err
	}
	slug := job.Slug()
	digest := Digest(body)
	log := c.log.With(zap.String("slug", slug))

	if c.digests != nil {
		prev, err := c.digests.Digest(ctx, slug)
		switch {
		case err != nil:
			log.Warn("digest lookup failed", zap.Error(err))
		case prev == digest:
			log.Info("job unchanged, skipping registration")
			return nil, ErrUnchanged
		}
	}

	resp, err := c.do(ctx, http.MethodPost, c.base+"/jobs/create_or_update", body, c.timeout)
	if err != nil {
		return nil, err
	}
	out, err := decode(resp.body)
	if err != nil {
		return nil, err
	}

	if c.digests != nil {
		if err := c.digests.SetDigest(ctx, slug, digest); err != nil {
			log.Warn("digest store failed", zap.Error(err))
		}
	}
	return out, nil
}

// Register translates schema into a form and registers job with it.
func (c *Client) Register(ctx context.Context, job Job, schema node.Node) (map[string]any, error) {
	form, err := c.translator.Translate(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranslation, err)
	}
	job.Form = form
	return c.CreateOrUpdateJob(ctx, job)
}

// IsUnchanged reports whether err means a registration was skipped.
func IsUnchanged(err error) bool { return errors.Is(err, ErrUnchanged) }
