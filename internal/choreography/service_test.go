package choreography

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
)

type fakeGateway struct {
	model string
	input map[string]any
	pred  *replicate.Prediction
	err   error
}

func (f *fakeGateway) CreateSync(ctx context.Context, model string, input map[string]any, timeout time.Duration) (*replicate.Prediction, error) {
	f.model = model
	f.input = input
	return f.pred, f.err
}

func predictionWithOutput(t *testing.T, output string) *replicate.Prediction {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": "c1", "status": "succeeded", "output": output})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &replicate.Prediction{ID: "c1", Status: replicate.StatusSucceeded, Raw: raw}
}

func TestProposePosesBuildsSingleModelInput(t *testing.T) {
	gw := &fakeGateway{pred: predictionWithOutput(t, posesJSON(t))}
	svc := NewService(gw, "", zerolog.Nop())

	poses, err := svc.ProposePoses(context.Background(), Request{
		BackgroundURL: "https://cdn.example/bg.jpg",
		OutfitURL:     "https://cdn.example/outfit.jpg",
		Gender:        "female",
		Style:         StyleSeated,
	})
	if err != nil {
		t.Fatalf("ProposePoses returned error: %v", err)
	}
	if len(poses) != 5 {
		t.Fatalf("got %d poses, want 5", len(poses))
	}
	if gw.model != DefaultModel {
		t.Fatalf("model = %q, want %q", gw.model, DefaultModel)
	}
	images, ok := gw.input["image_input"].([]string)
	if !ok || len(images) != 2 {
		t.Fatalf("image_input = %v, want background then outfit", gw.input["image_input"])
	}
	if images[0] != "https://cdn.example/bg.jpg" || images[1] != "https://cdn.example/outfit.jpg" {
		t.Fatalf("image order = %v", images)
	}
	system, _ := gw.input["system_prompt"].(string)
	if !strings.Contains(system, "'seated' style") {
		t.Fatalf("system prompt missing style: %q", system)
	}
	if !strings.Contains(system, "Image 2 contains the outfit") {
		t.Fatal("system prompt missing outfit context")
	}
	if !strings.Contains(system, "85mm lens") {
		t.Fatal("system prompt missing output template")
	}
	if gw.input["reasoning_effort"] != "minimal" || gw.input["verbosity"] != "low" {
		t.Fatalf("model tuning = %v / %v", gw.input["reasoning_effort"], gw.input["verbosity"])
	}
}

func TestProposePosesWithoutOutfitOmitsOutfitContext(t *testing.T) {
	gw := &fakeGateway{pred: predictionWithOutput(t, posesJSON(t))}
	svc := NewService(gw, "", zerolog.Nop())

	if _, err := svc.ProposePoses(context.Background(), Request{
		BackgroundURL: "https://cdn.example/bg.jpg",
		Gender:        "male",
		Style:         Style("unknown-style"),
	}); err != nil {
		t.Fatalf("ProposePoses returned error: %v", err)
	}
	images := gw.input["image_input"].([]string)
	if len(images) != 1 {
		t.Fatalf("image_input = %v, want background only", images)
	}
	system := gw.input["system_prompt"].(string)
	if strings.Contains(system, "Image 2 contains the outfit") {
		t.Fatal("system prompt must not mention an outfit image")
	}
	if !strings.Contains(system, "'casual' style") {
		t.Fatalf("unknown style should normalize to casual: %q", system)
	}
	prompt := gw.input["prompt"].(string)
	if prompt != "Analyze this background image and generate 5 pose suggestions." {
		t.Fatalf("prompt = %q", prompt)
	}
}

func TestProposeDuoPosesNumbersImagesPositionally(t *testing.T) {
	gw := &fakeGateway{pred: predictionWithOutput(t, posesJSON(t))}
	svc := NewService(gw, "", zerolog.Nop())

	if _, err := svc.ProposeDuoPoses(context.Background(), DuoRequest{
		BackgroundURL: "https://cdn.example/bg.jpg",
		OutfitAURL:    "https://cdn.example/a.jpg",
		OutfitBURL:    "https://cdn.example/b.jpg",
		GenderA:       "female",
		GenderB:       "male",
		Style:         StyleEditorial,
	}); err != nil {
		t.Fatalf("ProposeDuoPoses returned error: %v", err)
	}
	images := gw.input["image_input"].([]string)
	if len(images) != 3 || images[0] != "https://cdn.example/bg.jpg" {
		t.Fatalf("image_input = %v", images)
	}
	system := gw.input["system_prompt"].(string)
	if !strings.Contains(system, "Model A: female") || !strings.Contains(system, "Model B: male") {
		t.Fatalf("system prompt missing model genders: %q", system)
	}
	if !strings.Contains(system, "Image 2 shows Model A's outfit, Image 3 shows Model B's outfit") {
		t.Fatal("system prompt missing coordinated outfit context")
	}
	if !strings.Contains(system, "[Image 5]; 85mm lens.") {
		t.Fatal("system prompt missing duo output template")
	}
}

func TestProposePosesRequiresBackground(t *testing.T) {
	svc := NewService(&fakeGateway{}, "", zerolog.Nop())
	if _, err := svc.ProposePoses(context.Background(), Request{Gender: "female"}); err == nil {
		t.Fatal("expected error for missing background")
	}
	if _, err := svc.ProposeDuoPoses(context.Background(), DuoRequest{}); err == nil {
		t.Fatal("expected error for missing background")
	}
}
