package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newJobServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/remotive", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs":[
			{"title":"Backend Engineer","company_name":"Acme","candidate_required_location":"Worldwide","job_type":"full_time","url":"https://remotive.com/j/1"},
			{"title":"Platform Engineer","company_name":"Globex","job_type":"full_time","url":"https://remotive.com/j/2"}
		]}`))
	})
	mux.HandleFunc("/remoteok", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`[
			{"legal":"terms apply"},
			{"position":"Software Engineer","company":"Initech","tags":["go"],"url":"/job/42"},
			{"position":"Chef","company":"Bistro","tags":[],"url":"/job/43"}
		]`))
	})
	mux.HandleFunc("/arbeitnow", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"title":"Engineer (Remote)","company_name":"Hooli","location":"Berlin","tags":["engineering"],"url":"https://arbeitnow.com/j/9"}
		]}`))
	})
	return httptest.NewServer(mux)
}

func newTestSearcher(baseURL string) *JobSearcher {
	return NewJobSearcher(JobSearchConfig{
		Timeout:      2 * time.Second,
		MaxPerSource: 5,
		RemotiveURL:  baseURL + "/remotive",
		RemoteOKURL:  baseURL + "/remoteok",
		ArbeitNowURL: baseURL + "/arbeitnow",
	})
}

func TestJobSearchAggregatesSources(t *testing.T) {
	srv := newJobServer(t)
	defer srv.Close()

	out := newTestSearcher(srv.URL).Search(context.Background(), "engineer")
	for _, want := range []string{
		"[Remotive] Backend Engineer",
		"[RemoteOK] Software Engineer",
		"[ArbeitNow] Engineer (Remote)",
		"APPLY HERE",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	// RemoteOK results are filtered by title against the query.
	if strings.Contains(out, "Chef") {
		t.Fatalf("unfiltered RemoteOK result leaked:\n%s", out)
	}
}

func TestJobSearchPartialFailure(t *testing.T) {
	srv := newJobServer(t)
	defer srv.Close()

	s := newTestSearcher(srv.URL)
	s.cfg.RemotiveURL = srv.URL + "/missing"

	out := s.Search(context.Background(), "engineer")
	if !strings.Contains(out, "Remotive error") {
		t.Fatalf("failing source did not leave an error note:\n%s", out)
	}
	if !strings.Contains(out, "[RemoteOK] Software Engineer") {
		t.Fatalf("healthy source dropped with the failing one:\n%s", out)
	}
}

func TestJobSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := newTestSearcher(srv.URL).Search(context.Background(), "underwater basket weaving")
	if !strings.Contains(out, "No valid job results found") {
		t.Fatalf("missing no-results note:\n%s", out)
	}
}

func TestJobSearchCapsResultsPerSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs":[
			{"title":"A","company_name":"c","url":"u"},{"title":"B","company_name":"c","url":"u"},
			{"title":"C","company_name":"c","url":"u"}
		]}`))
	}))
	defer srv.Close()

	s := NewJobSearcher(JobSearchConfig{
		Timeout:      time.Second,
		MaxPerSource: 2,
		RemotiveURL:  srv.URL,
		RemoteOKURL:  srv.URL + "/nope",
		ArbeitNowURL: srv.URL + "/nope",
	})
	out := s.Search(context.Background(), "x")
	if strings.Contains(out, "[Remotive] C") {
		t.Fatalf("per-source cap not applied:\n%s", out)
	}
}

func TestSanitizeQuery(t *testing.T) {
	if got := sanitizeQuery(`  'engineer' `); got != "engineer" {
		t.Fatalf("sanitizeQuery = %q", got)
	}
}
