package detection

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// Capturer takes one picture and returns the encoded image.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// CommandCapturer runs an external still-capture tool that writes ImagePath.
type CommandCapturer struct {
	Command   []string
	ImagePath string
}

func (c CommandCapturer) args() []string {
	out := make([]string, len(c.Command))
	for i, a := range c.Command {
		out[i] = strings.ReplaceAll(a, config.ImagePlaceholder, c.ImagePath)
	}
	return out
}

func (c CommandCapturer) Capture(ctx context.Context) ([]byte, error) {
	args := c.args()
	if len(args) == 0 {
		return nil, errors.DetectionError("no capture command configured").Build()
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryDetection, "capture command failed").
			WithContext("command", args[0]).
			WithContext("stderr", strings.TrimSpace(stderr.String())).
			Retryable().
			Build()
	}
	img, err := os.ReadFile(c.ImagePath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDetection, "captured image unreadable").
			WithContext("path", c.ImagePath).
			Retryable().
			Build()
	}
	return img, nil
}
