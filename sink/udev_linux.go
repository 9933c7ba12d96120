//go:build linux

package sink

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// WatchALSADevices watches udev for "sound" subsystem add/remove events
// and sends the current set of ALSA card sysnames (e.g. "card0",
// "card1") on the returned channel every time that set changes, so a
// long-running trainer can notice a USB audio interface being plugged in
// or removed and re-Open its sink. The channel is closed when ctx is
// done. Discovery errors are sent on the returned error channel; the
// watcher keeps running afterwards.
func WatchALSADevices(ctx context.Context) (<-chan []string, <-chan error, error) {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("sound"); err != nil {
		return nil, nil, fmt.Errorf("sink: udev filter sound subsystem: %w", err)
	}

	deviceCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("sink: udev monitor start: %w", err)
	}

	cards := make(map[string]bool)
	for _, d := range enumerateSoundCards(u) {
		cards[d] = true
	}

	out := make(chan []string, 1)
	outErr := make(chan error, 1)
	out <- snapshot(cards)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deviceCh:
				if !ok {
					return
				}
				name := d.Sysname()
				switch d.Action() {
				case "add":
					cards[name] = true
				case "remove":
					delete(cards, name)
				default:
					continue
				}
				select {
				case out <- snapshot(cards):
				case <-ctx.Done():
					return
				}
			case err, ok := <-errCh:
				if !ok {
					continue
				}
				select {
				case outErr <- err:
				default:
				}
			}
		}
	}()

	return out, outErr, nil
}

func enumerateSoundCards(u udev.Udev) []string {
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("sound"); err != nil {
		return nil
	}
	devices, err := e.Devices()
	if err != nil {
		return nil
	}
	var names []string
	for _, d := range devices {
		names = append(names, d.Sysname())
	}
	return names
}

func snapshot(cards map[string]bool) []string {
	names := make([]string, 0, len(cards))
	for name := range cards {
		names = append(names, name)
	}
	return names
}
