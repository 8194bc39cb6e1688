package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.github.com"

	perPage = 100

	// maxJSONResponseBytes bounds a single API response (10 MB).
	maxJSONResponseBytes = 10 << 20
)

// ErrNotFound is returned when the API answers 404 for a lookup.
var ErrNotFound = errors.New("not found")

type (
	// RateLimitError is returned when the GitHub API rate limit is exceeded.
	RateLimitError struct {
		Limit     int
		Remaining int
		ResetAt   time.Time
	}

	// APIError is any other non-2xx answer from the API.
	APIError struct {
		URL        string
		StatusCode int
		Message    string
	}

	Release struct {
		ID         int64  `json:"id"`
		TagName    string `json:"tag_name"`
		Name       string `json:"name"`
		Draft      bool   `json:"draft"`
		Prerelease bool   `json:"prerelease"`
	}

	ReleaseAsset struct {
		ID                 int64  `json:"id"`
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	}

	WorkflowRun struct {
		ID         int64  `json:"id"`
		HeadSHA    string `json:"head_sha"`
		HeadBranch string `json:"head_branch"`
		Status     string `json:"status"`
		Conclusion string `json:"conclusion"`
	}

	Artifact struct {
		ID                 int64  `json:"id"`
		Name               string `json:"name"`
		ArchiveDownloadURL string `json:"archive_download_url"`
		Expired            bool   `json:"expired"`
		SizeInBytes        int64  `json:"size_in_bytes"`
	}

	// RunFilter narrows the workflow runs considered. Empty fields are not sent.
	RunFilter struct {
		Branch string
		Status string
		Event  string
	}

	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
	}

	ClientOption func(*Client)
)

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GitHub API %s: status %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GitHub API %s: status %d", e.URL, e.StatusCode)
}

func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) { g.httpClient = c }
}

// WithBaseURL overrides the API root, e.g. for GitHub Enterprise or test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) { g.baseURL = strings.TrimRight(base, "/") }
}

// WithToken authenticates requests. Without a token the anonymous rate limit applies.
func WithToken(token string) ClientOption {
	return func(g *Client) { g.token = token }
}

func WithUserAgent(ua string) ClientOption {
	return func(g *Client) { g.userAgent = ua }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "vsce-helper",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthHeaders returns the headers a download of rawURL needs. The token is
// only sent to GitHub hosts.
func (c *Client) AuthHeaders(rawURL string) map[string]string {
	if c.token == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || !isGitHubHost(u, c.baseURL) {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// isGitHubHost matches the configured API host and, for api.github.com,
// github.com where release assets are served.
func isGitHubHost(u *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, base.Host) {
		return true
	}
	return strings.EqualFold(base.Host, "api.github.com") && strings.EqualFold(u.Host, "github.com")
}

// ParseRepo splits "owner/repo".
func ParseRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return owner, repo, nil
}

func (c *Client) repoURL(owner, repo string, parts ...string) string {
	u := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// GetReleaseByTag looks a release up by its tag.
func (c *Client) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	var rel Release
	if _, err := c.getJSON(ctx, c.repoURL(owner, repo, "releases", "tags", tag), &rel); err != nil {
		return nil, fmt.Errorf("getting release %s: %w", tag, err)
	}
	return &rel, nil
}

// ListReleases returns every release of the repository, following pagination.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	var all []Release
	pageURL := fmt.Sprintf("%s?per_page=%d", c.repoURL(owner, repo, "releases"), perPage)

	for pageURL != "" {
		var page []Release
		next, err := c.getJSON(ctx, pageURL, &page)
		if err != nil {
			return nil, fmt.Errorf("listing releases: %w", err)
		}
		all = append(all, page...)
		pageURL = next
	}
	return all, nil
}

func (c *Client) ListReleaseAssets(ctx context.Context, owner, repo string, releaseID int64) ([]ReleaseAsset, error) {
	var all []ReleaseAsset
	pageURL := fmt.Sprintf("%s?per_page=%d",
		c.repoURL(owner, repo, "releases", strconv.FormatInt(releaseID, 10), "assets"), perPage)

	for pageURL != "" {
		var page []ReleaseAsset
		next, err := c.getJSON(ctx, pageURL, &page)
		if err != nil {
			return nil, fmt.Errorf("listing release assets: %w", err)
		}
		all = append(all, page...)
		pageURL = next
	}
	return all, nil
}

// ResolveRef maps a branch, tag or SHA to the commit SHA it points at.
func (c *Client) ResolveRef(ctx context.Context, owner, repo, ref string) (string, error) {
	u := c.repoURL(owner, repo, "commits", ref)
	resp, err := c.do(ctx, u, "application/vnd.github.sha")
	if err != nil {
		return "", fmt.Errorf("resolving ref %s: %w", ref, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("resolving ref %s: %w", ref, err)
	}
	sha := strings.TrimSpace(string(body))
	if sha == "" {
		return "", fmt.Errorf("resolving ref %s: empty response", ref)
	}
	return sha, nil
}

// TarballURL is the endpoint serving a gzipped tarball of the repository at ref.
func (c *Client) TarballURL(owner, repo, ref string) string {
	return c.repoURL(owner, repo, "tarball", ref)
}

// LatestWorkflowRun returns the newest run of the workflow file that matches filter.
func (c *Client) LatestWorkflowRun(ctx context.Context, owner, repo, workflow string, filter RunFilter) (*WorkflowRun, error) {
	q := url.Values{}
	q.Set("per_page", "1")
	if filter.Branch != "" {
		q.Set("branch", filter.Branch)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Event != "" {
		q.Set("event", filter.Event)
	}

	var result struct {
		TotalCount   int           `json:"total_count"`
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	u := c.repoURL(owner, repo, "actions", "workflows", workflow, "runs") + "?" + q.Encode()
	if _, err := c.getJSON(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("listing runs of %s: %w", workflow, err)
	}
	if len(result.WorkflowRuns) == 0 {
		return nil, fmt.Errorf("no runs of %s: %w", workflow, ErrNotFound)
	}
	return &result.WorkflowRuns[0], nil
}

func (c *Client) ListRunArtifacts(ctx context.Context, owner, repo string, runID int64) ([]Artifact, error) {
	var all []Artifact
	pageURL := fmt.Sprintf("%s?per_page=%d",
		c.repoURL(owner, repo, "actions", "runs", strconv.FormatInt(runID, 10), "artifacts"), perPage)

	for pageURL != "" {
		var page struct {
			Artifacts []Artifact `json:"artifacts"`
		}
		next, err := c.getJSON(ctx, pageURL, &page)
		if err != nil {
			return nil, fmt.Errorf("listing artifacts of run %d: %w", runID, err)
		}
		all = append(all, page.Artifacts...)
		pageURL = next
	}
	return all, nil
}

// getJSON decodes the response into v and returns the next page URL, if any.
func (c *Client) getJSON(ctx context.Context, u string, v any) (string, error) {
	resp, err := c.do(ctx, u, "application/vnd.github+json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(v); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return parseLinkHeader(resp.Header.Get("Link")), nil
}

// do performs a GET and maps error statuses. The caller closes the body.
func (c *Client) do(ctx context.Context, u, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}
	defer resp.Body.Close()

	if rlErr := checkRateLimit(resp); rlErr != nil {
		return nil, rlErr
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	return nil, &APIError{URL: u, StatusCode: resp.StatusCode, Message: body.Message}
}

func checkRateLimit(resp *http.Response) *RateLimitError {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining != "0" {
		return nil
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	rlErr := &RateLimitError{Limit: limit}
	if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rlErr.ResetAt = time.Unix(reset, 0)
	}
	return rlErr
}

// parseLinkHeader extracts the rel="next" URL from a Link header.
func parseLinkHeader(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(strings.TrimSpace(part), ";")
		if len(segments) < 2 {
			continue
		}
		link := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(link, "<") || !strings.HasSuffix(link, ">") {
			continue
		}
		for _, attr := range segments[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				return link[1 : len(link)-1]
			}
		}
	}
	return ""
}
