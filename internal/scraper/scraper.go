package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/logger"
)

const (
	DefaultUserAgent = "live-events/1.0 (github.com/pfrederiksen/live-events)"
	DefaultTimeout   = 30 * time.Second

	// upper bound on a fetched page
	maxBodySize = 10 << 20
)

// Scraper fetches source pages and extracts candidate events from them
type Scraper struct {
	client     *http.Client
	userAgent  string
	normalizer *event.Normalizer
}

// Option configures a Scraper
type Option func(*Scraper)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) { s.client = client }
}

// WithUserAgent sets the User-Agent sent with every request
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout of the default client
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scraper) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// New creates a new Scraper that parses dates with normalizer
func New(normalizer *event.Normalizer, opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent:  DefaultUserAgent,
		normalizer: normalizer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches a source and returns its valid candidate events
func (s *Scraper) Scrape(ctx context.Context, src Source) ([]*event.Event, error) {
	start := time.Now()
	body, err := s.fetch(ctx, src.URL)
	logger.RecordTiming("scrape.fetch."+src.ID, time.Since(start))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return s.Parse(src, io.LimitReader(body, maxBodySize))
}

// Parse extracts candidate events from already fetched content
func (s *Scraper) Parse(src Source, r io.Reader) ([]*event.Event, error) {
	switch src.Kind {
	case KindGrid:
		return s.parseGrid(src, r)
	case KindCards:
		return s.parseCards(src, r)
	case KindParking:
		return s.parseParking(src, r)
	default:
		return nil, fmt.Errorf("source %s: %w: %q", src.ID, ErrUnknownKind, src.Kind)
	}
}

func (s *Scraper) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// keep appends evt when it is valid and logs the drop otherwise
func keep(events []*event.Event, src Source, evt *event.Event, parseErr error) []*event.Event {
	if parseErr != nil || !evt.Valid() {
		fields := logger.Fields{
			"source": src.ID,
			"name":   evt.Name,
			"date":   evt.RawDate,
		}
		if parseErr != nil {
			fields["reason"] = parseErr.Error()
		}
		logger.Debug("Dropping invalid candidate", fields)
		logger.IncrCounter("scrape.dropped." + src.ID)
		return events
	}
	return append(events, evt)
}
