package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

const (
	DefaultCount    = 20
	DefaultPassword = "riminarb"
)

// Writer is the slice of the credential store the pipeline needs.
type Writer interface {
	DeleteAll(ctx context.Context) (int64, error)
	CreateOne(ctx context.Context, d domain.Draft) (domain.User, error)
}

// Generator supplies synthetic identities.
type Generator interface {
	Person() domain.Person
}

// Observer receives per-record and per-run outcomes.
type Observer interface {
	ObserveRecord(err error)
	ObserveRun(seconds float64)
}

type Config struct {
	Count    int
	Password string
}

type Pipeline struct {
	store Writer
	gen   Generator
	obs   Observer
	log   zerolog.Logger

	count    int
	password string
}

func New(store Writer, gen Generator, cfg Config, lg zerolog.Logger, obs Observer) *Pipeline {
	if cfg.Count < 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Password == "" {
		cfg.Password = DefaultPassword
	}
	if obs == nil {
		obs = noopObserver{}
	}
	return &Pipeline{
		store:    store,
		gen:      gen,
		obs:      obs,
		log:      lg,
		count:    cfg.Count,
		password: cfg.Password,
	}
}

// Report summarizes one run.
type Report struct {
	RunID     string
	Deleted   int64
	Requested int
	Created   []domain.User
	Errors    []error
}

func (r Report) Failed() int { return len(r.Errors) }

// Run wipes the collection, generates the drafts and creates them all
// concurrently through the single-record path. A failing record does not stop
// the others and nothing is rolled back; the returned error joins every
// per-record failure.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{RunID: uuid.NewString(), Requested: p.count}
	lg := p.log.With().Str("run_id", rep.RunID).Logger()
	defer func() { p.obs.ObserveRun(time.Since(start).Seconds()) }()

	lg.Info().Msg("deleting existing users")
	deleted, err := p.store.DeleteAll(ctx)
	if err != nil {
		lg.Error().Err(err).Msg("delete existing users failed")
		return rep, fmt.Errorf("seed: delete existing users: %w", err)
	}
	rep.Deleted = deleted
	lg.Info().Int64("deleted", deleted).Msg("existing users deleted")

	drafts := p.Drafts()
	lg.Info().Int("count", len(drafts)).Msg("users generated in memory")

	lg.Info().Msg("inserting users")
	created := make([]domain.User, len(drafts))
	errs := make([]error, len(drafts))

	var wg sync.WaitGroup
	for i, d := range drafts {
		wg.Add(1)
		go func(i int, d domain.Draft) {
			defer wg.Done()
			created[i], errs[i] = p.store.CreateOne(ctx, d)
		}(i, d)
	}
	wg.Wait()

	for i, err := range errs {
		p.obs.ObserveRecord(err)
		if err != nil {
			lg.Error().
				Err(err).
				Str("kind", string(domain.KindOf(err))).
				Str("code", domain.CodeOf(err)).
				Str("username", drafts[i].Username).
				Msg("create user failed")
			rep.Errors = append(rep.Errors, fmt.Errorf("user %q: %w", drafts[i].Username, err))
			continue
		}
		rep.Created = append(rep.Created, created[i])
	}

	if len(rep.Errors) > 0 {
		lg.Error().
			Int("created", len(rep.Created)).
			Int("failed", rep.Failed()).
			Msg("seeding finished with errors")
		return rep, errors.Join(rep.Errors...)
	}

	lg.Info().Int("created", len(rep.Created)).Msg("seeding finished")
	return rep, nil
}

// Drafts generates the synthetic users without touching the store.
func (p *Pipeline) Drafts() []domain.Draft {
	out := make([]domain.Draft, 0, p.count)
	for i := 0; i < p.count; i++ {
		person := p.gen.Person()
		out = append(out, domain.Draft{
			FirstName: person.FirstName,
			LastName:  person.LastName,
			Username:  person.Username,
			Email:     person.Email,
			Password:  p.password,
			Role:      string(domain.RoleUser),
		})
	}
	return out
}

type noopObserver struct{}

func (noopObserver) ObserveRecord(error)  {}
func (noopObserver) ObserveRun(float64) {}
