package tools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Trigger vocabulary for the tool-augmented path, grouped by the tool the
// keyword selects.
var (
	jobKeywords = []string{
		"job", "jobs", "opening", "openings", "hiring", "apply", "remote", "vacancy",
	}
	mentorKeywords = []string{
		"mentor", "mentors", "mentorship", "career guidance", "find a mentor", "coaching",
	}
	communityKeywords = []string{
		"community", "communities", "forum", "group", "network", "connect with others",
	}
)

// NeedsTools reports whether the prompt should take the tool-augmented
// path instead of a direct model call.
func NeedsTools(prompt string) bool {
	t := strings.ToLower(strings.TrimSpace(prompt))
	return matchAny(t, jobKeywords) || matchAny(t, mentorKeywords) || matchAny(t, communityKeywords)
}

// Summarizer condenses raw tool output into a user-facing answer.
type Summarizer interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Agent runs the selected tools concurrently and summarizes their combined
// output through a second model call. If summarization fails the raw tool
// output is returned verbatim.
type Agent struct {
	jobs       *JobSearcher
	mentorship *ListingSource
	community  *ListingSource
	summarizer Summarizer
}

func NewAgent(jobs *JobSearcher, mentorship, community *ListingSource, summarizer Summarizer) *Agent {
	return &Agent{
		jobs:       jobs,
		mentorship: mentorship,
		community:  community,
		summarizer: summarizer,
	}
}

// Answer resolves a tool-augmented prompt. At least one tool always runs:
// routing falls back to the job search when no keyword group matches,
// which only happens when the caller routed here on its own judgment.
func (a *Agent) Answer(ctx context.Context, prompt string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(prompt))
	wantJobs := matchAny(t, jobKeywords)
	wantMentors := matchAny(t, mentorKeywords)
	wantCommunities := matchAny(t, communityKeywords)
	if !wantJobs && !wantMentors && !wantCommunities {
		wantJobs = true
	}

	var jobsOut, mentorsOut, communitiesOut string
	g, gctx := errgroup.WithContext(ctx)
	if wantJobs {
		g.Go(func() error {
			jobsOut = a.jobs.Search(gctx, prompt)
			return nil
		})
	}
	if wantMentors {
		g.Go(func() error {
			mentorsOut = a.mentorship.Lookup(prompt)
			return nil
		})
	}
	if wantCommunities {
		g.Go(func() error {
			communitiesOut = a.community.Lookup(prompt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("tool lookup: %w", err)
	}

	var sections []string
	for _, s := range []string{jobsOut, mentorsOut, communitiesOut} {
		if s != "" {
			sections = append(sections, s)
		}
	}
	raw := strings.Join(sections, "\n\n---\n\n")

	summary, err := a.summarizer.GenerateText(ctx, summarizationPrompt(prompt, raw))
	if err != nil {
		log.Printf("tool summarization failed, returning raw output: %v", err)
		return raw, nil
	}
	return summary, nil
}

func summarizationPrompt(userPrompt, toolOutput string) string {
	return fmt.Sprintf(
		"The user asked: %s\n\n"+
			"Below is structured information from trusted sources (with links):\n\n"+
			"```\n%s\n```\n\n"+
			"Please summarize the results in a helpful, structured format that includes:\n"+
			"- Clear key takeaways with bullet points\n"+
			"- Important links preserved or rephrased as raw URLs\n"+
			"- Friendly and concise tone\n"+
			"- Avoid repeating everything unless it's useful",
		userPrompt, toolOutput)
}

func matchAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
