package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"foodrescue/internal/domain"
	"foodrescue/internal/federated"
	"foodrescue/internal/routing"
	"foodrescue/internal/validation"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"login", "Sign in with email and password", runLogin},
	{"register", "Create an account", runRegister},
	{"otp request", "Email a one-time sign-in code", runOTPRequest},
	{"otp verify", "Sign in with a one-time code", runOTPVerify},
	{"google-login", "Sign in with Google", runGoogleLogin},
	{"logout", "Forget the stored session", runLogout},
	{"whoami", "Show the current session", runWhoAmI},
	{"password reset-request", "Email a password reset link", runResetRequest},
	{"password reset-confirm", "Set a new password from a reset link", runResetConfirm},
	{"dashboard", "Load the dashboard for your role", runDashboard},
	{"donor submit", "Offer food for pickup", runDonorSubmit},
	{"donor history", "List your food offers", runDonorHistory},
	{"ngo available", "List food available to claim", runNGOAvailable},
	{"ngo claim", "Claim a food item", runNGOClaim},
	{"ngo history", "List your claims", runNGOHistory},
	{"ngo update", "Mark a claim delivered or cancelled", runNGOUpdate},
	{"admin users", "List all users", runAdminUsers},
	{"admin verify", "Verify a user account", runAdminVerify},
	{"admin analytics", "Show platform analytics", runAdminAnalytics},
	{"admin insight", "Show AI analytics insight", runAdminInsight},
	{"ai shelf-life", "Estimate shelf life of a food description", runShelfLife},
	{"ai match", "Suggest NGOs for a donation", runMatch},
	{"ai draft", "Draft a pickup announcement", runDraft},
}

// lookup finds the command named by the leading words of args.
func lookup(args []string) (command, []string, bool) {
	if len(args) == 0 {
		return command{}, nil, false
	}
	if len(args) > 1 {
		two := args[0] + " " + args[1]
		for _, c := range commands {
			if c.name == two {
				return c, args[2:], true
			}
		}
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c, args[1:], true
		}
	}
	return command{}, nil, false
}

// parse parses command flags, reporting bad flags and stray arguments as
// usage errors.
func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return usagef("%s: %v", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return usagef("%s: unexpected arguments: %s", fs.Name(), strings.Join(fs.Args(), " "))
	}
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := parse(fs, args); err != nil {
		return err
	}
	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return a.print(signedIn(user))
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var reg domain.Registration
	var role string
	fs.StringVar(&reg.Email, "email", "", "Account email")
	fs.StringVar(&reg.Password, "password", "", "Account password")
	fs.StringVar(&reg.Name, "name", "", "Display or organisation name")
	fs.StringVar(&role, "role", string(domain.RoleDonor), "Role: donor, ngo or admin")
	fs.StringVar(&reg.Location, "location", "", "Area used for NGO matching")
	if err := parse(fs, args); err != nil {
		return err
	}
	reg.Role = domain.Role(strings.ToLower(role))

	user, err := a.session.Register(ctx, reg)
	if err != nil {
		return err
	}
	return a.print(user)
}

func runOTPRequest(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("otp request", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.session.RequestOTP(ctx, *email); err != nil {
		return err
	}
	return a.print(ack("A sign-in code has been sent to your email."))
}

func runOTPVerify(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("otp verify", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	code := fs.String("code", "", "Code from the email")
	if err := parse(fs, args); err != nil {
		return err
	}
	user, err := a.session.VerifyOTP(ctx, *email, *code)
	if err != nil {
		return err
	}
	return a.print(signedIn(user))
}

func runGoogleLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("google-login", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 5*time.Minute, "How long to wait for the browser sign-in")
	if err := parse(fs, args); err != nil {
		return err
	}
	if a.provider == nil {
		return federated.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	user, err := a.session.SignInWithProvider(ctx, a.provider)
	if err != nil {
		return err
	}
	return a.print(signedIn(user))
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("logout", flag.ContinueOnError), args); err != nil {
		return err
	}
	a.session.Logout(ctx)
	return a.print(ack("Signed out."))
}

type whoami struct {
	State     string       `json:"state"`
	User      *domain.User `json:"user,omitempty"`
	Dashboard string       `json:"dashboard,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

func runWhoAmI(_ context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("whoami", flag.ContinueOnError), args); err != nil {
		return err
	}
	out := whoami{State: string(a.session.State())}
	if user := a.session.User(); user != nil {
		out.User = user
		out.Dashboard = string(routing.DashboardFor(user))
	}
	if exp, ok := a.session.Expiry(); ok {
		out.ExpiresAt = &exp
	}
	return a.print(out)
}

func runResetRequest(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("password reset-request", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.session.RequestPasswordReset(ctx, *email); err != nil {
		return err
	}
	return a.print(ack("If that email is registered, a reset link is on its way."))
}

func runResetConfirm(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("password reset-confirm", flag.ContinueOnError)
	token := fs.String("token", "", "Token from the reset link")
	password := fs.String("password", "", "New password")
	confirm := fs.String("confirm", "", "New password again")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.session.ConfirmPasswordReset(ctx, *token, *password, *confirm); err != nil {
		return err
	}
	return a.print(ack("Password updated. You can now log in."))
}

// errSignedOut is what protected views say to an anonymous user.
var errSignedOut = errors.New("You are not signed in. Run 'foodrescue login' first.")

func runDashboard(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("dashboard", flag.ContinueOnError), args); err != nil {
		return err
	}
	if d := routing.Guard(a.session, routing.PathDashboard); d.Action != routing.Allow {
		return errSignedOut
	}
	view, err := a.dashboards.Load(ctx, a.session.User())
	if err != nil {
		return err
	}
	if view.Kind == routing.RoleNotRecognized {
		return errors.New("Your account role is not recognized. Contact an administrator.")
	}
	return a.print(view)
}

func runDonorSubmit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("donor submit", flag.ContinueOnError)
	var sub domain.FoodSubmission
	fs.StringVar(&sub.Name, "name", "", "Food name")
	fs.StringVar(&sub.Description, "description", "", "Optional details")
	fs.StringVar(&sub.Quantity, "quantity", "", "Quantity, e.g. \"20 portions\"")
	fs.StringVar(&sub.Location, "location", "", "Pickup location")
	pickup := fs.String("pickup", "", "Pickup time: RFC 3339 or a delay such as 2h")
	if err := parse(fs, args); err != nil {
		return err
	}
	at, err := pickupTime(*pickup, time.Now())
	if err != nil {
		return err
	}
	sub.PickupTime = at
	if err := validation.FoodSubmission(sub); err != nil {
		return err
	}

	item, err := a.api.Donor.SubmitFood(ctx, sub)
	if err != nil {
		return err
	}
	return a.print(item)
}

func runDonorHistory(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("donor history", flag.ContinueOnError), args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.Donor.History(ctx) })
}

func runNGOAvailable(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("ngo available", flag.ContinueOnError), args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.NGO.Available(ctx) })
}

func runNGOClaim(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("ngo claim", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Food item ID")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return usagef("ngo claim: -id is required")
	}
	return printResult(a, func() (any, error) { return a.api.NGO.Claim(ctx, *id) })
}

func runNGOHistory(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("ngo history", flag.ContinueOnError), args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.NGO.History(ctx) })
}

func runNGOUpdate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("ngo update", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Claim ID")
	status := fs.String("status", "", "New status: delivered or cancelled")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return usagef("ngo update: -id is required")
	}
	next := domain.FoodStatus(strings.ToLower(*status))
	if err := validation.ClaimStatus(next); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.NGO.UpdateClaim(ctx, *id, next) })
}

func runAdminUsers(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("admin users", flag.ContinueOnError), args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.Admin.Users(ctx) })
}

func runAdminVerify(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("admin verify", flag.ContinueOnError)
	id := fs.Int64("id", 0, "User ID")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return usagef("admin verify: -id is required")
	}
	return printResult(a, func() (any, error) { return a.api.Admin.VerifyUser(ctx, *id) })
}

func runAdminAnalytics(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("admin analytics", flag.ContinueOnError), args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.Admin.Analytics(ctx) })
}

func runAdminInsight(ctx context.Context, a *app, args []string) error {
	if err := parse(flag.NewFlagSet("admin insight", flag.ContinueOnError), args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.Admin.Insight(ctx) })
}

func runShelfLife(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("ai shelf-life", flag.ContinueOnError)
	description := fs.String("description", "", "What the food is and how it was stored")
	if err := parse(fs, args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.AI.ShelfLife(ctx, *description) })
}

func runMatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("ai match", flag.ContinueOnError)
	var req domain.MatchRequest
	fs.StringVar(&req.Location, "location", "", "Pickup location")
	fs.StringVar(&req.FoodType, "food-type", "", "Kind of food")
	fs.StringVar(&req.Quantity, "quantity", "", "Quantity")
	if err := parse(fs, args); err != nil {
		return err
	}
	return printResult(a, func() (any, error) { return a.api.AI.MatchNGO(ctx, req) })
}

func runDraft(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("ai draft", flag.ContinueOnError)
	var req domain.DraftRequest
	fs.StringVar(&req.FoodName, "food", "", "Food name")
	fs.StringVar(&req.Quantity, "quantity", "", "Quantity")
	fs.StringVar(&req.Location, "location", "", "Pickup location")
	pickup := fs.String("pickup", "", "Pickup time: RFC 3339 or a delay such as 2h")
	if err := parse(fs, args); err != nil {
		return err
	}
	at, err := pickupTime(*pickup, time.Now())
	if err != nil {
		return err
	}
	req.PickupTime = at
	return printResult(a, func() (any, error) { return a.api.AI.DraftMessage(ctx, req) })
}

func printResult(a *app, call func() (any, error)) error {
	v, err := call()
	if err != nil {
		return err
	}
	return a.print(v)
}

type notice struct {
	Message string `json:"message"`
}

func ack(msg string) notice {
	return notice{Message: msg}
}

type signedInResult struct {
	Message   string      `json:"message"`
	User      domain.User `json:"user"`
	Dashboard string      `json:"dashboard"`
	Next      string      `json:"next"`
}

func signedIn(user domain.User) signedInResult {
	return signedInResult{
		Message:   "Signed in as " + user.Email,
		User:      user,
		Dashboard: string(routing.DashboardFor(&user)),
		Next:      routing.AfterLogin(""),
	}
}

// pickupTime accepts an absolute RFC 3339 time or a delay from now.
// Empty means unset.
func pickupTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return time.Time{}, validation.New("pickup_time", fmt.Sprintf("Invalid pickup time %q", s))
	}
	return now.Add(d).Truncate(time.Second), nil
}
