package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/normalizer"

	"github.com/sirupsen/logrus"
)

// DefaultRecommendationPrompt is used when no prompt file is configured.
const DefaultRecommendationPrompt = `You are a nutrition assistant. Suggest vitamins and supplements for the person below.
Explain each suggestion briefly and flag anything that may interact with their medications or allergies.

Age range: {{.AgeRange}}
Sex: {{.Sex}}
Pregnant or breastfeeding: {{.PregnantOrBreastfeeding}}
Medical conditions: {{.MedicalConditions}}
Current medications: {{.CurrentMedications}}
Natural supplements already taken: {{.NaturalSupplements}}
Allergies: {{.Allergies}}
Health goals: {{.HealthGoals}}
Interested supplements: {{.InterestedSupplements}}
`

// TextGenerator is an opaque text generation backend.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// PromptData holds the profile fields substituted into the prompt.
type PromptData struct {
	AgeRange                string
	Sex                     string
	PregnantOrBreastfeeding string
	MedicalConditions       string
	CurrentMedications      string
	NaturalSupplements      string
	Allergies               string
	HealthGoals             string
	InterestedSupplements   string
}

type RecommendationService interface {
	// Recommend returns generated text, or "" when generation fails.
	Recommend(ctx context.Context, profile *entity.Profile) string
	BuildPrompt(profile *entity.Profile) (string, error)
}

type recommendationService struct {
	log       *logrus.Logger
	generator TextGenerator
	prompt    *template.Template
}

// NewRecommendationService parses the prompt template from promptFile, or
// the built-in prompt when promptFile is empty. generator may be nil.
func NewRecommendationService(log *logrus.Logger, generator TextGenerator, promptFile string) (RecommendationService, error) {
	text := DefaultRecommendationPrompt
	if promptFile != "" {
		b, err := os.ReadFile(promptFile)
		if err != nil {
			return nil, fmt.Errorf("read prompt template: %w", err)
		}
		text = string(b)
	}

	prompt, err := template.New("recommendation").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}

	return &recommendationService{
		log:       log,
		generator: generator,
		prompt:    prompt,
	}, nil
}

func (s *recommendationService) BuildPrompt(profile *entity.Profile) (string, error) {
	data := PromptData{
		AgeRange:                profile.AgeRange,
		Sex:                     profile.Sex,
		PregnantOrBreastfeeding: profile.PregnantOrBreastfeeding,
		MedicalConditions:       orNone(profile.MedicalConditions),
		CurrentMedications:      orNone(profile.CurrentMedications),
		NaturalSupplements:      orNone(profile.NaturalSupplements),
		Allergies:               orNone(profile.Allergies),
		HealthGoals:             orNone(goalsWithOther(profile)),
		InterestedSupplements:   orNone(profile.InterestedSupplements),
	}

	var buf bytes.Buffer
	if err := s.prompt.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *recommendationService) Recommend(ctx context.Context, profile *entity.Profile) string {
	if s.generator == nil || profile == nil {
		return ""
	}

	prompt, err := s.BuildPrompt(profile)
	if err != nil {
		s.log.WithField("user_id", profile.UserID).Warnf("Failed to build recommendation prompt: %+v", err)
		return ""
	}

	text, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		s.log.WithField("user_id", profile.UserID).Warnf("Recommendation generation failed: %+v", err)
		return ""
	}

	return strings.TrimSpace(text)
}

// goalsWithOther replaces "Other" with its elaboration.
func goalsWithOther(profile *entity.Profile) []string {
	goals := make([]string, 0, len(profile.HealthGoals))
	for _, goal := range profile.HealthGoals {
		if goal == entity.HealthGoalOther && profile.OtherHealthGoal != "" {
			goal = profile.OtherHealthGoal
		}
		goals = append(goals, goal)
	}
	return goals
}

func orNone(items []string) string {
	if joined := normalizer.Join(items); joined != "" {
		return joined
	}
	return "None"
}
