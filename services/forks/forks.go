package forks

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/samber/mo"

	"faasrhub/clients"
	"faasrhub/clients/github"
	"faasrhub/metrics"
	"faasrhub/models"
)

// ForksService maintains a per-user fork of the workflow template
// repository. Fork state is derived from GitHub on every call - nothing is
// cached or persisted here.
type ForksService struct {
	githubClient  clients.GitHubClient
	collector     *metrics.Collector
	templateOwner string
	templateRepo  string
	pollAttempts  int
	pollDelay     time.Duration
}

func NewForksService(
	githubClient clients.GitHubClient,
	collector *metrics.Collector,
	templateOwner, templateRepo string,
	pollAttempts int,
	pollDelay time.Duration,
) *ForksService {
	return &ForksService{
		githubClient:  githubClient,
		collector:     collector,
		templateOwner: templateOwner,
		templateRepo:  templateRepo,
		pollAttempts:  pollAttempts,
		pollDelay:     pollDelay,
	}
}

// CheckFork looks for the user's fork of the template repository. A
// repository only counts when it exists, is flagged as a fork, and its
// parent is exactly the expected template - anything else is a normal
// negative result, not an error.
func (s *ForksService) CheckFork(
	ctx context.Context,
	session *models.Session,
) (mo.Option[*models.Fork], error) {
	log.Printf("📋 Starting to check fork for user: %s", session.UserLogin)

	maybeRepo, err := s.githubClient.GetRepository(ctx, session.InstallationID, session.UserLogin, s.templateRepo)
	if err != nil {
		return mo.None[*models.Fork](), fmt.Errorf("failed to check fork: %w", err)
	}

	repo, exists := maybeRepo.Get()
	if !exists {
		log.Printf("📋 Completed successfully - no fork found for user: %s", session.UserLogin)
		return mo.None[*models.Fork](), nil
	}

	expectedParent := s.templateOwner + "/" + s.templateRepo
	if !repo.Fork || repo.Parent == nil || repo.Parent.FullName != expectedParent {
		log.Printf("⚠️ Repository %s exists but is not a fork of %s, treating as absent", repo.FullName, expectedParent)
		return mo.None[*models.Fork](), nil
	}

	log.Printf("📋 Completed successfully - found fork %s for user: %s", repo.FullName, session.UserLogin)
	return mo.Some(forkFromRepository(repo)), nil
}

// CreateFork requests fork creation and polls until the fork becomes
// queryable. GitHub acknowledges the creation before the fork exists, so the
// poll is what actually establishes success. A creation call rejected with a
// permission or conflict status triggers a re-check for an existing fork
// before the rejection is propagated.
func (s *ForksService) CreateFork(ctx context.Context, session *models.Session) (*models.Fork, error) {
	log.Printf("📋 Starting to create fork of %s/%s for user: %s", s.templateOwner, s.templateRepo, session.UserLogin)

	if err := s.githubClient.CreateFork(ctx, session.InstallationID, s.templateOwner, s.templateRepo); err != nil {
		if apiErr, ok := github.AsAPIError(err); ok &&
			(apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusConflict) {
			log.Printf("⚠️ Fork creation rejected with status %d, checking for an existing fork", apiErr.StatusCode)
			maybeFork, checkErr := s.CheckFork(ctx, session)
			if checkErr == nil {
				if fork, exists := maybeFork.Get(); exists {
					log.Printf("📋 Completed successfully - discovered existing fork %s/%s", fork.Owner, fork.RepoName)
					s.collector.RecordForkEnsure(metrics.OutcomeForkExists)
					return fork, nil
				}
			}
		}
		s.collector.RecordForkEnsure(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to create fork: %w", err)
	}

	fork, err := s.pollUntilForkReady(ctx, session)
	if err != nil {
		s.collector.RecordForkEnsure(metrics.OutcomeForkTimeout)
		return nil, err
	}

	fork.Status = models.ForkStatusCreated
	s.collector.RecordForkEnsure(metrics.OutcomeForkCreated)
	log.Printf("📋 Completed successfully - created fork %s/%s", fork.Owner, fork.RepoName)
	return fork, nil
}

// EnsureFork returns the user's fork, creating it first when absent. This is
// the entry point callers should use.
func (s *ForksService) EnsureFork(ctx context.Context, session *models.Session) (*models.Fork, error) {
	log.Printf("📋 Starting to ensure fork for user: %s", session.UserLogin)

	maybeFork, err := s.CheckFork(ctx, session)
	if err != nil {
		return nil, err
	}
	if fork, exists := maybeFork.Get(); exists {
		s.collector.RecordForkEnsure(metrics.OutcomeForkExists)
		log.Printf("📋 Completed successfully - fork already exists for user: %s", session.UserLogin)
		return fork, nil
	}

	return s.CreateFork(ctx, session)
}

// pollUntilForkReady re-checks for the fork a bounded number of times with a
// fixed delay in between. Negative check results keep the loop going; hard
// check failures abort it.
func (s *ForksService) pollUntilForkReady(ctx context.Context, session *models.Session) (*models.Fork, error) {
	start := time.Now()

	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		maybeFork, err := s.CheckFork(ctx, session)
		if err != nil {
			return nil, fmt.Errorf("failed while polling for fork readiness: %w", err)
		}
		if fork, exists := maybeFork.Get(); exists {
			log.Printf("✅ Fork became ready on attempt %d/%d", attempt, s.pollAttempts)
			return fork, nil
		}

		if attempt < s.pollAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.pollDelay):
			}
		}
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	return nil, fmt.Errorf("fork was not ready after %d attempts (%s elapsed)", s.pollAttempts, elapsed)
}

// forkFromRepository maps a GitHub repository payload onto the fork view.
func forkFromRepository(repo *clients.GitHubRepository) *models.Fork {
	fork := &models.Fork{
		Owner:         repo.Owner.Login,
		RepoName:      repo.Name,
		ForkURL:       repo.HTMLURL,
		Status:        models.ForkStatusExists,
		DefaultBranch: repo.DefaultBranch,
	}
	if !repo.CreatedAt.IsZero() {
		createdAt := repo.CreatedAt
		fork.CreatedAt = &createdAt
	}
	return fork
}
