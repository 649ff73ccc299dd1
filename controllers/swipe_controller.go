package controllers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"sportmatch/discovery"
	"sportmatch/logging"
	"sportmatch/models"
	"sportmatch/services"
	"sportmatch/utils"
)

const helpText = `Commands:
  like, l       like the current candidate
  dislike, d    pass on the current candidate
  photos, p     show every photo of the current candidate
  refill, r     fetch a fresh batch
  matches, m    list your matches
  block         block the current candidate and move on
  report REASON report the current candidate and move on
  prefs SPORT MIN MAX
                change your discovery filters, "-" clears one
                (e.g. prefs running 25 40, prefs - - -)
  help, h       show this help
  quit, q       leave
`

// MatchLister lists the user's mutual matches
type MatchLister interface {
	ListMatches(ctx context.Context) ([]models.Match, error)
}

// PhotoResolver turns stored photo references into viewable URLs
type PhotoResolver interface {
	GenerateReadURL(ctx context.Context, ref string) (string, error)
	ResolveAll(ctx context.Context, refs []string) ([]string, error)
}

// PreferencesUpdater changes the discovery filters of the logged in user
type PreferencesUpdater interface {
	Update(ctx context.Context, prefs models.Preferences) (string, error)
}

// Moderator blocks and reports other users
type Moderator interface {
	BlockUser(ctx context.Context, id models.CandidateID) (string, error)
	ReportUser(ctx context.Context, id models.CandidateID, reason string) (string, error)
}

// SwipeController drives a discovery session from a line based terminal
type SwipeController struct {
	Session *discovery.Session
	Matches MatchLister
	Photos  PhotoResolver // optional
	Logger  logr.Logger

	Preferences PreferencesUpdater // optional, enables prefs
	Moderation  Moderator          // optional, enables block and report

	// AutoRefill fetches a new batch once when the current one runs out
	AutoRefill bool
}

// NewSwipeController creates a SwipeController with auto refill enabled
func NewSwipeController(session *discovery.Session, matches MatchLister, photos PhotoResolver, logger logr.Logger) *SwipeController {
	return &SwipeController{
		Session:    session,
		Matches:    matches,
		Photos:     photos,
		Logger:     logger.WithName("swipe"),
		AutoRefill: true,
	}
}

// Run loads the first batch and processes commands from in until quit, EOF or
// ctx is done. It returns services.ErrSessionInvalidated when the backend
// rejected the credential.
func (sc *SwipeController) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(out, "🏃 Welcome to SportMatch! Type help for commands.")

	st := sc.Session.Refill(ctx)
	sc.render(ctx, out, st)

	lines, readErr := readLines(ctx, in)
	for {
		if err := sc.checkSession(ctx, out); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return err
				}
				fmt.Fprintln(out)
				return nil
			}
			line = l
		}

		command, args := parseCommand(line)
		sc.Logger.V(logging.DEBUG).Info("Command received", "command", command, "args", len(args))

		switch command {
		case "like", "l":
			sc.afterDecision(ctx, out, sc.Session.Like(ctx))
		case "dislike", "d":
			sc.afterDecision(ctx, out, sc.Session.Dislike(ctx))
		case "refill", "r":
			sc.render(ctx, out, sc.Session.Refill(ctx))
		case "photos", "p":
			sc.showPhotos(ctx, out, sc.Session.State())
		case "matches", "m":
			sc.showMatches(ctx, out)
		case "block":
			sc.block(ctx, out)
		case "report":
			sc.report(ctx, out, strings.Join(args, " "))
		case "prefs":
			sc.updatePreferences(ctx, out, args)
		case "help", "h", "?":
			fmt.Fprint(out, helpText)
		case "quit", "q", "exit":
			fmt.Fprintln(out, "👋 Bye!")
			return nil
		case "":
			sc.render(ctx, out, sc.Session.State())
		default:
			fmt.Fprintf(out, "Unknown command %q, type help for the list.\n", command)
		}
	}
}

// parseCommand splits a line into a lower cased command and its arguments
func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// readLines scans in on its own goroutine so a blocked read never delays
// cancellation. readErr receives exactly one value before lines is closed:
// nil on EOF.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		var err error
		defer func() {
			readErr <- err
			close(lines)
		}()

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				err = ctx.Err()
				return
			}
		}
		if serr := scanner.Err(); serr != nil {
			err = fmt.Errorf("failed to read input: %w", serr)
		}
	}()
	return lines, readErr
}

func (sc *SwipeController) checkSession(ctx context.Context, out io.Writer) error {
	select {
	case <-sc.Session.Invalidated():
		fmt.Fprintln(out, "🔒 Your session expired, please log in again.")
		return services.ErrSessionInvalidated
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (sc *SwipeController) afterDecision(ctx context.Context, out io.Writer, st discovery.State) {
	if m, ok := sc.Session.TakeMatch(); ok {
		fmt.Fprintf(out, "💘 It's a match with %s!\n", m.Name)
	}
	if st.Exhausted && sc.AutoRefill {
		fmt.Fprintln(out, "That was everyone in this batch, looking for more...")
		st = sc.Session.Refill(ctx)
	}
	sc.render(ctx, out, st)
}

func (sc *SwipeController) render(ctx context.Context, out io.Writer, st discovery.State) {
	if st.Invalidated || st.Closed {
		return
	}
	if st.Err != "" {
		fmt.Fprintf(out, "⚠️  %s\n", st.Err)
		sc.Session.DismissError()
	}

	switch {
	case st.Current != nil:
		sc.renderCandidate(ctx, out, *st.Current, st.Remaining)
	case st.Exhausted:
		fmt.Fprintln(out, "You have seen everyone in this batch. Type refill for more.")
	case st.Loaded:
		fmt.Fprintln(out, "No sporters nearby right now. Try refill again later.")
	default:
		fmt.Fprintln(out, "Nothing loaded yet. Type refill to try again.")
	}
}

func (sc *SwipeController) renderCandidate(ctx context.Context, out io.Writer, c models.Candidate, remaining int) {
	fmt.Fprintf(out, "\n%s, %d", utils.DisplayName(c), c.Age)
	if c.SportType != "" {
		fmt.Fprintf(out, " · %s", c.SportType)
	}
	fmt.Fprintln(out)
	if distance := utils.FormatDistance(c); distance != "" {
		fmt.Fprintf(out, "📍 %s\n", distance)
	}
	if c.Bio != "" {
		fmt.Fprintf(out, "%s\n", c.Bio)
	}
	if photo := utils.ExtractFirstPhoto(c); photo != "" {
		fmt.Fprintf(out, "📷 %s\n", sc.photoURL(ctx, photo))
	}
	fmt.Fprintf(out, "(%d left in this batch) [l]ike / [d]islike\n", remaining)
}

func (sc *SwipeController) showPhotos(ctx context.Context, out io.Writer, st discovery.State) {
	if st.Current == nil || len(st.Current.Photos) == 0 {
		fmt.Fprintln(out, "No photos to show.")
		return
	}
	urls := st.Current.Photos
	if sc.Photos != nil {
		resolved, err := sc.Photos.ResolveAll(ctx, urls)
		if err != nil {
			sc.Logger.Error(err, "Failed to resolve photos", "candidateId", st.Current.ID)
			fmt.Fprintln(out, "⚠️  Photos are unavailable right now.")
			return
		}
		urls = resolved
	}
	for i, u := range urls {
		fmt.Fprintf(out, "  %d. %s\n", i+1, u)
	}
}

func (sc *SwipeController) showMatches(ctx context.Context, out io.Writer) {
	matches, err := sc.Matches.ListMatches(ctx)
	if err != nil {
		sc.printFailure(out, err)
		return
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches yet. Keep swiping!")
		return
	}

	fmt.Fprintf(out, "💞 %d match(es):\n", len(matches))
	for _, m := range matches {
		line := fmt.Sprintf("  - %s, %d", m.Name, m.Age)
		if m.PhotoURL != nil && *m.PhotoURL != "" {
			line += " 📷 " + sc.photoURL(ctx, *m.PhotoURL)
		}
		fmt.Fprintln(out, line)
	}
}

// block hides the current candidate for good and moves past it
func (sc *SwipeController) block(ctx context.Context, out io.Writer) {
	target, ok := sc.moderationTarget(out)
	if !ok {
		return
	}
	msg, err := sc.Moderation.BlockUser(ctx, target.ID)
	if err != nil {
		sc.printFailure(out, err)
		return
	}
	fmt.Fprintf(out, "🚫 %s\n", msg)
	sc.skip(ctx, out, target)
}

func (sc *SwipeController) report(ctx context.Context, out io.Writer, reason string) {
	if reason == "" {
		fmt.Fprintln(out, "Usage: report REASON")
		return
	}
	target, ok := sc.moderationTarget(out)
	if !ok {
		return
	}
	msg, err := sc.Moderation.ReportUser(ctx, target.ID, reason)
	if err != nil {
		sc.printFailure(out, err)
		return
	}
	fmt.Fprintf(out, "🚩 %s\n", msg)
	sc.skip(ctx, out, target)
}

func (sc *SwipeController) moderationTarget(out io.Writer) (models.Candidate, bool) {
	if sc.Moderation == nil {
		fmt.Fprintln(out, "Blocking and reporting are not available.")
		return models.Candidate{}, false
	}
	st := sc.Session.State()
	if st.Current == nil {
		fmt.Fprintln(out, "There is nobody to act on right now.")
		return models.Candidate{}, false
	}
	return *st.Current, true
}

// skip records a dislike for target so it leaves the batch, unless another
// candidate became current in the meantime
func (sc *SwipeController) skip(ctx context.Context, out io.Writer, target models.Candidate) {
	st := sc.Session.State()
	if st.Current == nil || st.Current.ID != target.ID {
		sc.render(ctx, out, st)
		return
	}
	sc.afterDecision(ctx, out, sc.Session.Dislike(ctx))
}

// updatePreferences changes the filters and starts over with a fresh batch
func (sc *SwipeController) updatePreferences(ctx context.Context, out io.Writer, args []string) {
	if sc.Preferences == nil {
		fmt.Fprintln(out, "Changing preferences is not available.")
		return
	}
	prefs, err := parsePreferences(args)
	if err != nil {
		fmt.Fprintf(out, "⚠️  %s\n", err)
		return
	}
	msg, err := sc.Preferences.Update(ctx, prefs)
	if err != nil {
		sc.printFailure(out, err)
		return
	}
	fmt.Fprintf(out, "⚙️  %s\n", msg)

	sc.Session.Reset()
	sc.render(ctx, out, sc.Session.Refill(ctx))
}

// parsePreferences reads SPORT MIN MAX, where "-" leaves a filter unset
func parsePreferences(args []string) (models.Preferences, error) {
	var prefs models.Preferences
	if len(args) != 3 {
		return prefs, errors.New("usage: prefs SPORT MIN MAX, use - to clear a filter")
	}
	if args[0] != "-" {
		sport := strings.ToLower(args[0])
		prefs.PreferredSportType = &sport
	}
	ages := []**int{&prefs.PreferredMinAge, &prefs.PreferredMaxAge}
	for i, arg := range args[1:] {
		if arg == "-" {
			continue
		}
		age, err := strconv.Atoi(arg)
		if err != nil {
			return prefs, fmt.Errorf("invalid age %q", arg)
		}
		*ages[i] = &age
	}
	return prefs, nil
}

// printFailure shows a failed request unless it invalidated the session, which
// the next session check reports
func (sc *SwipeController) printFailure(out io.Writer, err error) {
	if services.IsSessionInvalidated(err) {
		return
	}
	fmt.Fprintf(out, "⚠️  %s\n", err)
}

// photoURL resolves ref when a PhotoResolver is configured and falls back to
// the raw reference otherwise
func (sc *SwipeController) photoURL(ctx context.Context, ref string) string {
	if sc.Photos == nil {
		return ref
	}
	u, err := sc.Photos.GenerateReadURL(ctx, ref)
	if err != nil {
		sc.Logger.V(logging.VERBOSE).Info("Failed to resolve photo", "ref", ref, "error", err.Error())
		return ref
	}
	return u
}
