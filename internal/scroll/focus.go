package scroll

import (
	"context"
	"fmt"
	"time"
)

// Focuser can scroll every element matching a selector into view in turn,
// calling after once each element is in view.
type Focuser interface {
	FocusEach(ctx context.Context, selector string, after func() error) (int, error)
}

// FocusSelectors are the lazily loaded images on a chart page.
var FocusSelectors = []string{".thumb", ".channel .profile-image img"}

// Focus walks each lazily loaded image into the viewport so its loader
// fires, then waits settle for the requests to finish.
func Focus(ctx context.Context, f Focuser, pause, settle time.Duration, sleep SleepFunc) (int, error) {
	if sleep == nil {
		sleep = Sleep
	}
	wait := func() error { return sleep(ctx, pause) }
	total := 0
	for _, sel := range FocusSelectors {
		n, err := f.FocusEach(ctx, sel, wait)
		total += n
		if err != nil {
			return total, fmt.Errorf("focus %s: %w", sel, err)
		}
	}
	return total, sleep(ctx, settle)
}
