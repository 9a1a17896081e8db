package hostctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/Resinat/stalecheck/internal/detector"
)

// CommandReloader runs an external command on every reload, for hosts that
// reload through a supervisor or a kiosk browser controller.
type CommandReloader struct {
	Name string
	Args []string
}

// NewCommandReloader splits a command line on whitespace. An empty line
// yields nil.
func NewCommandReloader(commandLine string) *CommandReloader {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	return &CommandReloader{Name: fields[0], Args: fields[1:]}
}

func (r *CommandReloader) Reload(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.Name, r.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("hostctl: run %s: %w: %s", r.Name, err, msg)
		}
		return fmt.Errorf("hostctl: run %s: %w", r.Name, err)
	}
	log.Printf("[hostctl] reload command %s completed", r.Name)
	return nil
}

// Multi reloads through every reloader in order. Cache clearing is forwarded
// to members that support it. All members run even when one fails.
type Multi []detector.Reloader

func (m Multi) ClearCaches(ctx context.Context) error {
	var errs []error
	for _, r := range m {
		if c, ok := r.(detector.CacheClearer); ok {
			if err := c.ClearCaches(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Reload(ctx context.Context) error {
	var errs []error
	for _, r := range m {
		if err := r.Reload(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
