package choreography

import (
	"fmt"
	"strings"
)

// Style identifies a pose style preset. Unknown values fall back to casual.
type Style string

const (
	StyleCasual     Style = "casual"
	StyleEditorial  Style = "editorial"
	StyleCommercial Style = "commercial"
	StyleLifestyle  Style = "lifestyle"
	StylePower      Style = "power"
	StyleRomantic   Style = "romantic"
	StyleAthletic   Style = "athletic"
	StyleSeated     Style = "seated"
)

// Behavioral descriptions steering the choreographer model per preset.
var styleDescriptions = map[Style]string{
	StyleCasual:     "Natural, everyday poses (leaning, hands in pockets, relaxed stance)",
	StyleEditorial:  "Dramatic angles, elongated limbs, avant-garde positioning",
	StyleCommercial: "Clean, product-focused poses showcasing outfit clearly",
	StyleLifestyle:  "In-motion shots, laughing, walking, natural interactions",
	StylePower:      "Confident stances, crossed arms, authoritative positioning",
	StyleRomantic:   "Gentle movements, flowing poses, dreamy expressions",
	StyleAthletic:   "Action poses, mid-stride, jumping, athletic stances",
	StyleSeated:     "Sitting on steps, benches, ground, relaxed seated positions",
}

// Shorter variants used in the duo prompt, which is already long.
var duoStyleDescriptions = map[Style]string{
	StyleCasual:     "Natural, everyday poses",
	StyleEditorial:  "Dramatic angles, avant-garde positioning",
	StyleCommercial: "Clean, product-focused poses",
	StyleLifestyle:  "In-motion, natural interactions",
	StylePower:      "Confident, authoritative positioning",
	StyleRomantic:   "Gentle movements, flowing poses",
	StyleAthletic:   "Action poses, dynamic stances",
	StyleSeated:     "Relaxed seated positions",
}

// Normalize maps arbitrary input onto a known preset.
func (s Style) Normalize() Style {
	normalized := Style(strings.ToLower(strings.TrimSpace(string(s))))
	if _, ok := styleDescriptions[normalized]; ok {
		return normalized
	}
	return StyleCasual
}

func buildSystemPrompt(gender string, style Style, hasOutfit bool) string {
	style = style.Normalize()
	desc := styleDescriptions[style]

	outfitContext := ""
	outfitInstruction := ""
	if hasOutfit {
		outfitContext = "\n- Image 2 contains the outfit the model will wear. Analyze the outfit style (formal, casual, sporty, elegant, etc.) and tailor poses to complement and showcase it effectively."
		outfitInstruction = " Consider the outfit style from Image 2 when suggesting poses - ensure poses highlight the clothing's best features."
	}

	return fmt.Sprintf(`You are a Senior Fashion Editorial Choreographer analyzing background images for realistic pose placement.%[1]s

Your task: Generate 5 distinct, professional poses for a %[2]s model appropriate for the '%[3]s' style (%[4]s).

Constraints:
- Image 1 is the background. Identify walkable/sit-able areas in the background (steps, ground, walls, furniture).%[5]s
- Tailor poses to be gender-appropriate.
- All poses must align with the %[3]s style.
- Output ONLY a valid JSON array of 5 strings.
- Each string must follow this exact format: "The %[2]s model from [Image 1] in the [Image 2] outfit is [POSE DESCRIPTION] in [Image 3]; 85mm lens."

Example output format:
[
  "The %[2]s model from [Image 1] in the [Image 2] outfit is leaning against the brick wall with one hand in pocket in [Image 3]; 85mm lens.",
  "The %[2]s model from [Image 1] in the [Image 2] outfit is walking confidently down the steps in [Image 3]; 85mm lens."
]`, outfitInstruction, gender, style, desc, outfitContext)
}

func buildDuoSystemPrompt(genderA, genderB string, style Style, hasOutfitA, hasOutfitB bool) string {
	style = style.Normalize()
	desc := duoStyleDescriptions[style]

	outfitContext := ""
	outfitInstruction := ""
	switch {
	case hasOutfitA && hasOutfitB:
		outfitContext = "\n- Image 2 shows Model A's outfit, Image 3 shows Model B's outfit. Analyze both outfit styles and suggest poses that complement and coordinate both looks."
		outfitInstruction = " Consider the outfit styles when suggesting poses - ensure poses highlight both outfits effectively and create visual harmony."
	case hasOutfitA:
		outfitContext = "\n- Image 2 shows Model A's outfit. Analyze the outfit style and ensure Model A's poses showcase it effectively."
		outfitInstruction = " Consider Model A's outfit style when suggesting poses."
	case hasOutfitB:
		outfitContext = "\n- Image 2 shows Model B's outfit. Analyze the outfit style and ensure Model B's poses showcase it effectively."
		outfitInstruction = " Consider Model B's outfit style when suggesting poses."
	}

	return fmt.Sprintf(`You are a Senior Fashion Editorial Choreographer analyzing background images for realistic duo pose placement.%[1]s

Your task: Generate 5 distinct, professional duo poses for two models:
- Model A: %[2]s
- Model B: %[3]s

Style: '%[4]s' (%[5]s)

Constraints:
- Image 1 is the background. Identify valid positions for two people.%[6]s
- Tailor poses to be gender-appropriate.
- All poses must align with the %[4]s style.
- For mixed-gender pairs, consider classic editorial dynamics (complementary body language, height differences).
- Poses should show realistic interaction (conversation, walking together, one seated/one standing).
- Output ONLY a valid JSON array of 5 strings.
- Each string must follow: "The %[2]s model from [Image 1] in the [Image 2] outfit is [POSE_A], while the %[3]s model from [Image 3] in the [Image 4] outfit is [POSE_B] in [Image 5]; 85mm lens."`,
		outfitInstruction, genderA, genderB, style, desc, outfitContext)
}

func buildUserPrompt(hasOutfit bool) string {
	if hasOutfit {
		return "Analyze the background image (Image 1) and outfit image (Image 2) to generate 5 pose suggestions that complement this outfit."
	}
	return "Analyze this background image and generate 5 pose suggestions."
}

func buildDuoUserPrompt(hasOutfits bool) string {
	if hasOutfits {
		return "Analyze the background image and outfit images to generate 5 duo pose suggestions that complement the outfits."
	}
	return "Analyze this background image and generate 5 duo pose suggestions for two models."
}
