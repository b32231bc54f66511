package detection

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// HTTPSource captures an image and classifies it with a hosted object detection model.
type HTTPSource struct {
	client   *http.Client
	capturer Capturer
	endpoint string
	apiKey   string

	mu         sync.RWMutex
	confidence int
	overlap    int
}

// NewHTTPSource uses a CommandCapturer built from cfg when capturer is nil.
func NewHTTPSource(cfg config.DetectionConfig, capturer Capturer) *HTTPSource {
	if capturer == nil {
		capturer = CommandCapturer{Command: cfg.CaptureCommand, ImagePath: cfg.ImagePath}
	}
	return &HTTPSource{
		client:     &http.Client{Timeout: cfg.Timeout},
		capturer:   capturer,
		endpoint:   cfg.InferenceURL,
		apiKey:     cfg.APIKey,
		confidence: cfg.Confidence,
		overlap:    cfg.Overlap,
	}
}

// SetThresholds changes the confidence and overlap percentages for later samples.
func (s *HTTPSource) SetThresholds(confidence, overlap int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confidence, s.overlap = confidence, overlap
}

func (s *HTTPSource) requestURL() (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	q := u.Query()
	q.Set("confidence", strconv.Itoa(s.confidence))
	q.Set("overlap", strconv.Itoa(s.overlap))
	s.mu.RUnlock()
	if s.apiKey != "" {
		q.Set("api_key", s.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *HTTPSource) Sample(ctx context.Context) (cart.Snapshot, error) {
	img, err := s.capturer.Capture(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.requestURL()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid inference URL").Build()
	}

	body := strings.NewReader(base64.StdEncoding.EncodeToString(img))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDetection, "failed to build inference request").Build()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDetection, "inference request failed").Retryable().Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.DetectionError(fmt.Sprintf("inference returned %s", resp.Status)).
			WithContext("status", resp.StatusCode).
			WithContext("body", strings.TrimSpace(string(snippet))).
			Build()
	}

	var inf Inference
	if err := json.NewDecoder(resp.Body).Decode(&inf); err != nil {
		return nil, errors.WrapError(err, errors.CategoryDetection, "invalid inference response").Build()
	}
	return inf.Snapshot(), nil
}
