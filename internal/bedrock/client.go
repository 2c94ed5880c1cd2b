// Package bedrock wraps the hosted LLM invocation: one InvokeModel call
// with the service-side guardrail attached, throttling retries, and
// refusal detection on the returned text.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/dishalabs/disha/internal/reliability"
)

const anthropicVersion = "bedrock-2023-05-31"

// Refusal phrases the hosted guardrail substitutes into replies. Seeing one
// means the model-side guardrail intervened and the turn must not be stored.
var refusalPhrases = []string{
	"sorry, i can't help with that",
	"i cannot in good conscience",
	"let's focus on career-related questions",
}

// Message is one turn in the running conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentBlock is one typed block of model output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is a decoded model reply.
type Result struct {
	Blocks              []ContentBlock
	ModelID             string
	GuardrailIntervened bool
}

// FirstText returns the first text-typed content block.
func (r Result) FirstText() (string, bool) {
	for _, b := range r.Blocks {
		if b.Type == "text" {
			return b.Text, true
		}
	}
	return "", false
}

// InvokeAPI is the slice of the Bedrock runtime client this package uses.
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Config carries the invocation settings.
type Config struct {
	Region           string
	AccountID        string
	ModelID          string
	GuardrailID      string
	GuardrailVersion string
	MaxTokens        int
	MaxAttempts      int
	BackoffBase      time.Duration
	BackoffCap       time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 8 * time.Second
	}
	if c.GuardrailVersion == "" {
		c.GuardrailVersion = "DRAFT"
	}
}

// Client invokes the hosted model.
type Client struct {
	api   InvokeAPI
	cfg   Config
	sleep func(time.Duration)
}

// New builds a client on the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("bedrock: region must be set")
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		return nil, fmt.Errorf("bedrock: model id must be set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return NewWithAPI(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

// NewWithAPI builds a client around an existing InvokeModel implementation.
func NewWithAPI(api InvokeAPI, cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		api:   api,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

type invokeBody struct {
	AnthropicVersion string    `json:"anthropic_version"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
}

type invokeReply struct {
	Content    []ContentBlock `json:"content"`
	Completion string         `json:"completion"`
}

// Invoke sends the running message list to the model. Throttling responses
// are retried with exponential backoff up to the configured attempt count;
// any other error is fatal for the request.
func (c *Client) Invoke(ctx context.Context, messages []Message) (Result, error) {
	if len(messages) == 0 {
		return Result{}, fmt.Errorf("bedrock: empty message list")
	}

	payload, err := json.Marshal(invokeBody{
		AnthropicVersion: anthropicVersion,
		Messages:         messages,
		MaxTokens:        c.cfg.MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("bedrock: marshal request: %w", err)
	}

	input := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.cfg.ModelID),
		Body:        payload,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	}
	if arn := c.guardrailARN(); arn != "" {
		input.GuardrailIdentifier = aws.String(arn)
		input.GuardrailVersion = aws.String(c.cfg.GuardrailVersion)
	}

	var out *bedrockruntime.InvokeModelOutput
	for attempt := 0; ; attempt++ {
		out, err = c.api.InvokeModel(ctx, input)
		if err == nil {
			break
		}
		if !reliability.IsThrottle(err) {
			return Result{}, fmt.Errorf("bedrock: invoke model: %w", err)
		}
		if attempt+1 >= c.cfg.MaxAttempts {
			return Result{}, fmt.Errorf("bedrock: max retries exceeded: %w", err)
		}
		c.sleep(reliability.ExponentialBackoff(attempt, c.cfg.BackoffBase, c.cfg.BackoffCap))
	}

	return decodeReply(out.Body, c.cfg.ModelID)
}

// GenerateText sends a single user prompt and returns the reply text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	res, err := c.Invoke(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", err
	}
	text, ok := res.FirstText()
	if !ok {
		return "", fmt.Errorf("bedrock: no text block in reply")
	}
	return text, nil
}

func (c *Client) guardrailARN() string {
	if c.cfg.GuardrailID == "" || c.cfg.AccountID == "" {
		return ""
	}
	return fmt.Sprintf("arn:aws:bedrock:%s:%s:guardrail/%s", c.cfg.Region, c.cfg.AccountID, c.cfg.GuardrailID)
}

func decodeReply(body []byte, modelID string) (Result, error) {
	var reply invokeReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return Result{}, fmt.Errorf("bedrock: decode reply: %w", err)
	}

	blocks := reply.Content
	if len(blocks) == 0 && reply.Completion != "" {
		blocks = []ContentBlock{{Type: "text", Text: reply.Completion}}
	}
	for i := range blocks {
		blocks[i].Text = strings.TrimSpace(blocks[i].Text)
	}

	return Result{
		Blocks:              blocks,
		ModelID:             modelID,
		GuardrailIntervened: detectRefusal(blocks),
	}, nil
}

func detectRefusal(blocks []ContentBlock) bool {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(strings.ToLower(b.Text))
		sb.WriteString(" ")
	}
	joined := sb.String()
	for _, phrase := range refusalPhrases {
		if strings.Contains(joined, phrase) {
			return true
		}
	}
	return false
}
