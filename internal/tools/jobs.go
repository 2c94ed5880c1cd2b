// Package tools implements the tool-augmented reply path: remote job
// boards, mentorship listings and community listings, plus the agent that
// fans out across them and summarizes the results.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dishalabs/disha/internal/observability"
	"github.com/dishalabs/disha/internal/reliability"
)

const (
	defaultFetchTimeout    = 15 * time.Second
	defaultMaxPerSource    = 5
	defaultRemotiveURL     = "https://remotive.com/api/remote-jobs"
	defaultRemoteOKURL     = "https://remoteok.io/api"
	defaultArbeitNowURL    = "https://www.arbeitnow.com/api/job-board-api"
	remoteOKUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxJobResponseBodySize = 4 << 20
)

// JobSearchConfig carries the data-source endpoints and fetch limits.
// Endpoints are overridable so tests can point at a local server.
type JobSearchConfig struct {
	Timeout      time.Duration
	MaxPerSource int
	RemotiveURL  string
	RemoteOKURL  string
	ArbeitNowURL string
	Metrics      *observability.Metrics
}

// JobSearcher queries the three job boards concurrently and renders a
// combined listing. A failing board contributes an error note; it never
// aborts the search.
type JobSearcher struct {
	cfg    JobSearchConfig
	client *http.Client
}

func NewJobSearcher(cfg JobSearchConfig) *JobSearcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = defaultMaxPerSource
	}
	if cfg.RemotiveURL == "" {
		cfg.RemotiveURL = defaultRemotiveURL
	}
	if cfg.RemoteOKURL == "" {
		cfg.RemoteOKURL = defaultRemoteOKURL
	}
	if cfg.ArbeitNowURL == "" {
		cfg.ArbeitNowURL = defaultArbeitNowURL
	}
	return &JobSearcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs all boards and returns the rendered listing text.
func (s *JobSearcher) Search(ctx context.Context, query string) string {
	query = sanitizeQuery(query)

	var remotive, remoteok, arbeitnow []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		remotive = s.fetchRemotive(gctx, query)
		return nil
	})
	g.Go(func() error {
		remoteok = s.fetchRemoteOK(gctx, query)
		return nil
	})
	g.Go(func() error {
		arbeitnow = s.fetchArbeitNow(gctx, query)
		return nil
	})
	// Fetchers report failure as listing notes, never as errors.
	_ = g.Wait()

	var lines []string
	lines = append(lines, remotive...)
	lines = append(lines, remoteok...)
	lines = append(lines, arbeitnow...)

	if !anyJobLine(lines) {
		lines = append(lines, fmt.Sprintf("No valid job results found for %q", query))
	}

	header := fmt.Sprintf("**Job Search Results for: %q**\n\n", query)
	footer := "\n\nUse the application links above to apply directly on the company websites."
	return header + strings.Join(lines, "\n\n") + footer
}

type remotiveResponse struct {
	Jobs []struct {
		Title    string `json:"title"`
		Company  string `json:"company_name"`
		Location string `json:"candidate_required_location"`
		JobType  string `json:"job_type"`
		URL      string `json:"url"`
	} `json:"jobs"`
}

func (s *JobSearcher) fetchRemotive(ctx context.Context, query string) []string {
	endpoint := s.cfg.RemotiveURL + "?search=" + url.QueryEscape(query)
	raw, err := s.get(ctx, endpoint, nil)
	if err != nil {
		return s.sourceError("Remotive", err)
	}
	var resp remotiveResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return s.sourceError("Remotive", err)
	}
	jobs := resp.Jobs
	if len(jobs) > s.cfg.MaxPerSource {
		jobs = jobs[:s.cfg.MaxPerSource]
	}
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, renderJob("Remotive", j.Title, j.Company, valueOr(j.Location, "Remote"), j.JobType, j.URL))
	}
	return out
}

type remoteOKJob struct {
	Position string   `json:"position"`
	Company  string   `json:"company"`
	Tags     []string `json:"tags"`
	URL      string   `json:"url"`
}

func (s *JobSearcher) fetchRemoteOK(ctx context.Context, query string) []string {
	headers := map[string]string{"User-Agent": remoteOKUserAgent}
	raw, err := s.get(ctx, s.cfg.RemoteOKURL, headers)
	if err != nil {
		return s.sourceError("RemoteOK", err)
	}
	// First element of the feed is legal metadata, not a job.
	var feed []json.RawMessage
	if err := json.Unmarshal(raw, &feed); err != nil {
		return s.sourceError("RemoteOK", err)
	}
	if len(feed) == 0 {
		return s.sourceError("RemoteOK", fmt.Errorf("empty response"))
	}

	var jobs []remoteOKJob
	for _, item := range feed[1:] {
		var j remoteOKJob
		if err := json.Unmarshal(item, &j); err != nil {
			continue
		}
		if j.Position == "" || j.Company == "" {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(j.Position), strings.ToLower(query)) {
			continue
		}
		jobs = append(jobs, j)
		if len(jobs) >= s.cfg.MaxPerSource {
			break
		}
	}

	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		tag := "N/A"
		if len(j.Tags) > 0 {
			tag = j.Tags[0]
		}
		out = append(out, renderJob("RemoteOK", j.Position, j.Company, "Remote", tag, "https://remoteok.io"+j.URL))
	}
	return out
}

type arbeitNowResponse struct {
	Data []struct {
		Title    string   `json:"title"`
		Company  string   `json:"company_name"`
		Location string   `json:"location"`
		Tags     []string `json:"tags"`
		URL      string   `json:"url"`
	} `json:"data"`
}

func (s *JobSearcher) fetchArbeitNow(ctx context.Context, query string) []string {
	endpoint := s.cfg.ArbeitNowURL + "?search=" + url.QueryEscape(query)
	raw, err := s.get(ctx, endpoint, nil)
	if err != nil {
		return s.sourceError("ArbeitNow", err)
	}
	var resp arbeitNowResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return s.sourceError("ArbeitNow", err)
	}
	jobs := resp.Data
	if len(jobs) > s.cfg.MaxPerSource {
		jobs = jobs[:s.cfg.MaxPerSource]
	}
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		tags := "N/A"
		if len(j.Tags) > 0 {
			tags = strings.Join(j.Tags, ", ")
		}
		out = append(out, renderJob("ArbeitNow", j.Title, j.Company, valueOr(j.Location, "Remote"), tags, j.URL))
	}
	return out
}

// get fetches one board. A transient status (429, 5xx) earns a single
// retry after a short pause; anything else fails immediately.
func (s *JobSearcher) get(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		res, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusOK {
			defer res.Body.Close()
			return io.ReadAll(io.LimitReader(res.Body, maxJobResponseBodySize))
		}
		res.Body.Close()
		if attempt > 0 || !reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return nil, fmt.Errorf("status code %d", res.StatusCode)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(reliability.ExponentialBackoff(attempt, 250*time.Millisecond, time.Second)):
		}
	}
}

// sourceError records the failure and renders it as a listing note.
func (s *JobSearcher) sourceError(source string, err error) []string {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ToolFetchErrors.WithLabelValues(strings.ToLower(source)).Inc()
	}
	return []string{fmt.Sprintf("%s error: %v", source, err)}
}

func renderJob(source, title, company, location, kind, applyURL string) string {
	return fmt.Sprintf("**[%s] %s**\n- %s\n- %s\n- %s\n- [APPLY HERE](%s)",
		source, title, valueOr(company, "N/A"), location, valueOr(kind, "N/A"), valueOr(applyURL, "#"))
}

func anyJobLine(lines []string) bool {
	for _, l := range lines {
		if !strings.Contains(l, "error:") {
			return true
		}
	}
	return false
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sanitizeQuery(query string) string {
	return strings.Trim(strings.TrimSpace(query), `'"`)
}
