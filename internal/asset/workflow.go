package asset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/github"
)

// GitHubWorkflow is a named artifact of the newest matching workflow run,
// unpacked into the destination.
type GitHubWorkflow struct {
	gitHub
	workflow string
	artifact string
	filter   github.RunFilter

	runOnce sync.Once
	run     *github.WorkflowRun
	runErr  error
}

func NewGitHubWorkflow(deps *Deps, client *github.Client, repo, workflow, artifact string, filter github.RunFilter) (*GitHubWorkflow, error) {
	a := &GitHubWorkflow{workflow: workflow, artifact: artifact, filter: filter}
	if err := a.init(deps, client, repo); err != nil {
		return nil, err
	}
	return a, nil
}

// Version is the head commit of the run the artifact comes from.
func (a *GitHubWorkflow) Version(ctx context.Context) (string, error) {
	run, err := a.latestRun(ctx)
	if err != nil {
		return "", err
	}
	return run.HeadSHA, nil
}

func (a *GitHubWorkflow) CacheID() string {
	return filepath.Join(a.cacheRoot(), "actions", sanitize(a.workflow), sanitize(a.artifact)+cacheSuffix)
}

func (a *GitHubWorkflow) CopyTo(ctx context.Context, dest string) (string, error) {
	run, err := a.latestRun(ctx)
	if err != nil {
		return "", err
	}

	artifacts, err := a.client.ListRunArtifacts(ctx, a.owner, a.repo, run.ID)
	if err != nil {
		return "", err
	}
	var found *github.Artifact
	for i := range artifacts {
		if artifacts[i].Name == a.artifact && !artifacts[i].Expired {
			found = &artifacts[i]
			break
		}
	}
	if found == nil {
		return "", fmt.Errorf("%w: %s in run %d of %s", domain.ErrArtifactNotFound, a.artifact, run.ID, a.workflow)
	}

	store, err := a.MkDest("", a.CacheID())
	if err != nil {
		return "", err
	}
	name := sanitize(a.artifact) + "-" + strconv.FormatInt(run.ID, 10) + ".zip"
	archive, err := a.download(ctx, found.ArchiveDownloadURL, filepath.Join(store, name))
	if err != nil {
		return "", err
	}
	return a.ExtractArchive(archive, dest, "", 0, true)
}

func (a *GitHubWorkflow) latestRun(ctx context.Context) (*github.WorkflowRun, error) {
	a.runOnce.Do(func() {
		a.run, a.runErr = a.client.LatestWorkflowRun(ctx, a.owner, a.repo, a.workflow, a.filter)
		if errors.Is(a.runErr, github.ErrNotFound) {
			a.runErr = fmt.Errorf("%w: no runs of %s in %s/%s", domain.ErrArtifactNotFound, a.workflow, a.owner, a.repo)
		}
	})
	return a.run, a.runErr
}
