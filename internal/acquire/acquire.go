// Package acquire obtains the raw overview-page markup for a profile from a
// real Chrome browser over the DevTools protocol. Running against the user's
// own browser keeps the site's bot checks quiet, and an interactive
// verification challenge can be completed by the user in that browser while
// we wait.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

const siteHost = "rocketleague.tracker.network"

// Failure reasons surfaced to the dashboard as transient status messages.
const (
	ReasonNoBrowser = "no reachable browser"
	ReasonChallenge = "verification challenge not cleared"
	ReasonTimeout   = "page load timed out"
)

// AcquisitionError wraps a failure to obtain markup. The operation is only
// retried on the next timer tick or manual trigger, never in a tight loop.
type AcquisitionError struct {
	Reason string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Acquirer produces raw markup for a platform+username pair.
type Acquirer interface {
	Fetch(ctx context.Context, platform, username string) (string, error)
}

// ChromeAcquirer attaches to an already-running Chrome via its remote
// debugging endpoint. A tab that already has the profile open is reused;
// otherwise a new tab navigates to the overview page.
type ChromeAcquirer struct {
	DevToolsURL   string
	ChallengeWait time.Duration
}

func NewChromeAcquirer(devToolsURL string, challengeWait time.Duration) *ChromeAcquirer {
	return &ChromeAcquirer{DevToolsURL: devToolsURL, ChallengeWait: challengeWait}
}

// ProfileURL is the overview page for a profile.
func ProfileURL(platform, username string) string {
	return fmt.Sprintf("https://%s/rocket-league/profile/%s/%s/overview",
		siteHost, platform, url.PathEscape(username))
}

func (a *ChromeAcquirer) Fetch(ctx context.Context, platform, username string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, a.DevToolsURL)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	infos, err := chromedp.Targets(browserCtx)
	if err != nil {
		return "", &AcquisitionError{Reason: ReasonNoBrowser, Err: err}
	}

	tabCtx := browserCtx
	var actions []chromedp.Action
	if id := findProfileTab(infos); id != "" {
		log.Printf("[Acquire] reusing open tab for %s\n", siteHost)
		var cancelTab context.CancelFunc
		tabCtx, cancelTab = chromedp.NewContext(allocCtx, chromedp.WithTargetID(id))
		defer cancelTab()
	} else {
		log.Printf("[Acquire] navigating to %s\n", ProfileURL(platform, username))
		actions = append(actions, chromedp.Navigate(ProfileURL(platform, username)))
	}

	var html string
	actions = append(actions,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		reason := ReasonNoBrowser
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return "", &AcquisitionError{Reason: reason, Err: err}
	}

	if LooksLikeChallenge(html) {
		html, err = a.waitForChallenge(tabCtx)
		if err != nil {
			return "", err
		}
	}
	return html, nil
}

// waitForChallenge polls the page until the verification challenge clears.
// The user resolves the challenge interactively in their browser.
func (a *ChromeAcquirer) waitForChallenge(tabCtx context.Context) (string, error) {
	log.Printf("[Acquire] verification challenge detected, waiting up to %v\n", a.ChallengeWait)

	deadline := time.Now().Add(a.ChallengeWait)
	for time.Now().Before(deadline) {
		select {
		case <-tabCtx.Done():
			return "", &AcquisitionError{Reason: ReasonChallenge, Err: tabCtx.Err()}
		case <-time.After(3 * time.Second):
		}

		var html string
		if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return "", &AcquisitionError{Reason: ReasonChallenge, Err: err}
		}
		if !LooksLikeChallenge(html) {
			log.Println("[Acquire] challenge cleared")
			return html, nil
		}
	}
	return "", &AcquisitionError{Reason: ReasonChallenge}
}

// findProfileTab returns the ID of an open page tab on the tracker site, or
// "" when there is none.
func findProfileTab(infos []*target.Info) target.ID {
	for _, info := range infos {
		if info.Type == "page" && strings.Contains(info.URL, siteHost) {
			return info.TargetID
		}
	}
	return ""
}

// Challenge pages show several of these phrases at once; a profile page may
// legitimately contain one of them in passing.
var challengeIndicators = []string{
	"Verify you are human",
	"Cloudflare",
	"Ray ID",
	"Just a moment",
	"Checking your browser",
}

// LooksLikeChallenge reports whether the markup is a verification
// interstitial rather than a profile page.
func LooksLikeChallenge(html string) bool {
	matches := 0
	for _, indicator := range challengeIndicators {
		if strings.Contains(html, indicator) {
			matches++
		}
	}
	return matches >= 2
}
