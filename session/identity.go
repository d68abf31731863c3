package session

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"
)

const DefaultIdentityPollInterval = 2 * time.Second

type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (string, error)
}

type IdentitySourceFunc func(ctx context.Context) (string, error)

func (f IdentitySourceFunc) CurrentIdentity(ctx context.Context) (string, error) {
	return f(ctx)
}

// FileIdentity reads the signed-in user from the persisted credentials file.
// A missing file means nobody is signed in.
type FileIdentity struct {
	Path string
}

func (f FileIdentity) CurrentIdentity(_ context.Context) (string, error) {
	file, err := os.Open(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", scanner.Err()
}

// WatchIdentity polls src and calls onChange whenever the observed identity
// differs from the last one seen. Read errors skip the poll.
func WatchIdentity(ctx context.Context, src IdentitySource, interval time.Duration, onChange func(ctx context.Context, userID string)) error {
	if interval <= 0 {
		interval = DefaultIdentityPollInterval
	}

	var last string
	poll := func() {
		id, err := src.CurrentIdentity(ctx)
		if err != nil || id == last {
			return
		}
		last = id
		onChange(ctx, id)
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}
