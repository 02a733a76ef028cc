package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	config "github.com/unitasa/social-scheduler/configs"
	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

// ErrGenerationFailed is what a firing records as failure_reason when the
// gateway gives up. There is deliberately no fallback text: a fabricated
// "success" would corrupt history and hide outages.
var ErrGenerationFailed = errors.New("generation_failed")

// generationMaxRetries is the number of retries after the first attempt.
const generationMaxRetries = 2

const geminiModel = "gemini-1.5-flash"

type GenerationService interface {
	Generate(ctx context.Context, req *transfer.GenerationRequest) (string, error)
}

type generationService struct {
	client  *genai.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewGenerationService(cfg config.Config) (GenerationService, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &generationService{
		client:  client,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(0.5), 5),
	}, nil
}

func (s *generationService) Generate(ctx context.Context, req *transfer.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	model := s.client.GenerativeModel(geminiModel)
	model.SetTemperature(temperatureFor(req.Variation))

	prompt := buildPrompt(req)

	var lastErr error
	for attempt := 0; attempt <= generationMaxRetries; attempt++ {
		result, err := s.breaker.Execute(func() (interface{}, error) {
			return model.GenerateContent(ctx, genai.Text(prompt))
		})
		if err == nil {
			if text, ok := extractText(result.(*genai.GenerateContentResponse)); ok {
				return text, nil
			}
			err = errors.New("empty generation response")
		}

		lastErr = err
		slog.Info("content generation attempt failed", "attempt", attempt, "error", err.Error())

		// An open breaker means the service is down; more retries just
		// delay the firing's failure record.
		if errors.Is(err, gobreaker.ErrOpenState) || ctx.Err() != nil {
			break
		}
		if attempt < generationMaxRetries {
			time.Sleep(time.Duration(1<<attempt) * time.Second)
		}
	}

	return "", fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

func extractText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(sb.String())
	return text, text != ""
}

// temperatureFor maps the 0-100 creativity knob onto the model's 0.0-1.0
// temperature range.
func temperatureFor(v *transfer.ContentVariation) float32 {
	if v == nil {
		return 0.7
	}
	creativity := v.Creativity
	if creativity < 0 {
		creativity = 0
	}
	if creativity > 100 {
		creativity = 100
	}
	return float32(creativity) / 100
}

func buildPrompt(req *transfer.GenerationRequest) string {
	var sb strings.Builder

	contentType := req.ContentType
	if contentType == "" {
		contentType = "post"
	}

	fmt.Fprintf(&sb, "Write a %s for %s about: %s.\n", contentType, req.Platform, req.Topic)

	if req.Tone != "" {
		fmt.Fprintf(&sb, "Tone: %s.\n", req.Tone)
	}
	if req.ThemePreset != "" {
		fmt.Fprintf(&sb, "Theme: %s.\n", req.ThemePreset)
	}

	if v := req.Variation; v != nil {
		if v.Humor >= 70 {
			sb.WriteString("Make it genuinely funny.\n")
		} else if v.Humor >= 40 {
			sb.WriteString("A light touch of humor is welcome.\n")
		}
		if v.Length <= 30 {
			sb.WriteString("Keep it very short, one or two sentences.\n")
		} else if v.Length >= 70 {
			sb.WriteString("Make it detailed and substantial.\n")
		}
	}

	if limit, ok := models.CharacterLimit(req.Platform); ok {
		fmt.Fprintf(&sb, "Hard limit: at most %d characters.\n", limit)
	}

	sb.WriteString("Return only the post text, no preamble and no quotation marks.")
	return sb.String()
}
