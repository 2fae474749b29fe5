// Package dashboard loads the data behind each role's dashboard.
//
// Sources for one dashboard are fetched in parallel; the first required
// source to fail cancels the others and its error is returned as-is, so
// callers see the same normalized message the gateway produced.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"foodrescue/internal/dashboard/metrics"
	"foodrescue/internal/domain"
	"foodrescue/internal/routing"
)

type DonorAPI interface {
	History(ctx context.Context) ([]domain.FoodItem, error)
}

type NGOAPI interface {
	Available(ctx context.Context) ([]domain.FoodItem, error)
	History(ctx context.Context) ([]domain.Claim, error)
}

type AdminAPI interface {
	Users(ctx context.Context) ([]domain.User, error)
	Analytics(ctx context.Context) (domain.Analytics, error)
	Insight(ctx context.Context) (domain.Analytics, error)
}

// Data sources, used as metric labels and log fields.
const (
	sourceDonorHistory = "donor_history"
	sourceAvailable    = "available"
	sourceClaims       = "claims"
	sourceUsers        = "users"
	sourceAnalytics    = "analytics"
	sourceInsight      = "insight"
)

type DonorData struct {
	History []domain.FoodItem `json:"history"`
}

type NGOData struct {
	Available []domain.FoodItem `json:"available"`
	Claims    []domain.Claim    `json:"claims"`
}

type AdminData struct {
	Users     []domain.User    `json:"users"`
	Analytics domain.Analytics `json:"analytics"`
	// Insight is empty when the AI service could not produce one.
	Insight string `json:"insight,omitempty"`
}

// View is a loaded dashboard. Exactly one of the role fields is set when
// Kind names a role; none are set for LoadingUser or RoleNotRecognized.
type View struct {
	Kind  routing.Dashboard `json:"dashboard"`
	User  *domain.User      `json:"user,omitempty"`
	Donor *DonorData        `json:"donor,omitempty"`
	NGO   *NGOData          `json:"ngo,omitempty"`
	Admin *AdminData        `json:"admin,omitempty"`
}

type Loader struct {
	donor   DonorAPI
	ngo     NGOAPI
	admin   AdminAPI
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

func New(donor DonorAPI, ngo NGOAPI, admin AdminAPI, opts ...Option) (*Loader, error) {
	if donor == nil {
		return nil, errors.New("donor api is required")
	}
	if ngo == nil {
		return nil, errors.New("ngo api is required")
	}
	if admin == nil {
		return nil, errors.New("admin api is required")
	}
	l := &Loader{
		donor:  donor,
		ngo:    ngo,
		admin:  admin,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load fetches the dashboard for user. A nil user yields a LoadingUser view
// and an unknown role a RoleNotRecognized view; neither touches the network.
func (l *Loader) Load(ctx context.Context, user *domain.User) (View, error) {
	kind := routing.DashboardFor(user)
	view := View{Kind: kind, User: user}

	start := time.Now()
	var err error
	switch kind {
	case routing.DonorDashboard:
		view.Donor, err = l.loadDonor(ctx)
	case routing.NGODashboard:
		view.NGO, err = l.loadNGO(ctx)
	case routing.AdminDashboard:
		view.Admin, err = l.loadAdmin(ctx)
	default:
		return view, nil
	}
	l.metrics.ObserveLoadLatency(string(kind), time.Since(start))

	if err != nil {
		l.metrics.IncrementOutcome(string(kind), "error")
		l.logger.WarnContext(ctx, "dashboard load failed", "dashboard", kind, "error", err)
		return View{Kind: kind, User: user}, err
	}
	l.metrics.IncrementOutcome(string(kind), "ok")
	return view, nil
}

func (l *Loader) loadDonor(ctx context.Context) (*DonorData, error) {
	history, err := timed(ctx, l, sourceDonorHistory, l.donor.History)
	if err != nil {
		return nil, err
	}
	return &DonorData{History: history}, nil
}

func (l *Loader) loadNGO(ctx context.Context) (*NGOData, error) {
	g, ctx := errgroup.WithContext(ctx)
	data := &NGOData{}

	g.Go(func() error {
		available, err := timed(ctx, l, sourceAvailable, l.ngo.Available)
		data.Available = available
		return err
	})
	g.Go(func() error {
		claims, err := timed(ctx, l, sourceClaims, l.ngo.History)
		data.Claims = claims
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (l *Loader) loadAdmin(ctx context.Context) (*AdminData, error) {
	g, ctx := errgroup.WithContext(ctx)
	data := &AdminData{}

	g.Go(func() error {
		users, err := timed(ctx, l, sourceUsers, l.admin.Users)
		data.Users = users
		return err
	})
	g.Go(func() error {
		analytics, err := timed(ctx, l, sourceAnalytics, l.admin.Analytics)
		data.Analytics = analytics
		return err
	})

	// The insight is optional: a failing AI service leaves it empty
	// rather than hiding the rest of the dashboard.
	g.Go(func() error {
		insight, err := timed(ctx, l, sourceInsight, l.admin.Insight)
		if err != nil {
			l.logger.DebugContext(ctx, "analytics insight unavailable", "error", err)
			return nil
		}
		data.Insight = insight.Insight
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func timed[T any](ctx context.Context, l *Loader, source string, fetch func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := fetch(ctx)
	l.metrics.ObserveSourceLatency(source, time.Since(start))
	return v, err
}
