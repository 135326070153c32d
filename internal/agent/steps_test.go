package agent

import (
	"strings"
	"testing"

	"github.com/themobileprof/voicepilot/pkg/models"
)

func TestNextMapping(t *testing.T) {
	tests := []struct {
		name          string
		step          models.OnboardingStep
		authenticated bool
		want          models.OnboardingStep
	}{
		{"welcome unauthenticated", models.StepWelcome, false, models.StepSignupPrompt},
		{"welcome authenticated", models.StepWelcome, true, models.StepCourseSelection},
		{"signup prompt", models.StepSignupPrompt, false, models.StepSignupForm},
		{"signup form", models.StepSignupForm, false, models.StepCourseSelection},
		{"course selection", models.StepCourseSelection, false, models.StepFirstSubmission},
		{"first submission", models.StepFirstSubmission, false, models.StepCompleted},
		{"completed stays completed", models.StepCompleted, false, models.StepCompleted},
		{"idle restarts", models.StepIdle, false, models.StepWelcome},
		{"unknown restarts", models.OnboardingStep("bogus"), false, models.StepWelcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.step, StepContext{Authenticated: tt.authenticated})
			if got != tt.want {
				t.Errorf("Next(%q, auth=%v) = %q, want %q", tt.step, tt.authenticated, got, tt.want)
			}
		})
	}
}

func TestInstructionsCoverAllSteps(t *testing.T) {
	steps := []models.OnboardingStep{
		models.StepWelcome, models.StepSignupPrompt, models.StepSignupForm,
		models.StepCourseSelection, models.StepFirstSubmission,
		models.StepCompleted, models.StepIdle,
	}
	for _, step := range steps {
		if Instructions(step) == "" {
			t.Errorf("Instructions(%q) is empty", step)
		}
	}

	if got := Instructions(models.OnboardingStep("bogus")); got != Instructions(models.StepWelcome) {
		t.Errorf("unknown step instructions = %q, want welcome guidance", got)
	}
}

func TestCompleteStepAuthenticatedSkipsSignup(t *testing.T) {
	memory := models.DefaultMemory()

	phrase := CompleteStep(memory, StepContext{Authenticated: true})

	if memory.CurrentStep != models.StepCourseSelection {
		t.Errorf("CurrentStep = %q, want %q", memory.CurrentStep, models.StepCourseSelection)
	}
	if !strings.Contains(phrase, "join course") {
		t.Errorf("phrase %q should carry the course-selection guidance", phrase)
	}
}

func TestCompleteStepUnauthenticated(t *testing.T) {
	memory := models.DefaultMemory()

	phrase := CompleteStep(memory, StepContext{})

	if memory.CurrentStep != models.StepSignupPrompt {
		t.Errorf("CurrentStep = %q, want %q", memory.CurrentStep, models.StepSignupPrompt)
	}
	if !strings.Contains(phrase, "create account") {
		t.Errorf("phrase %q should carry the signup guidance", phrase)
	}
}

func TestCompleteStepRecordsProgress(t *testing.T) {
	memory := models.DefaultMemory()
	sctx := StepContext{Authenticated: true}

	CompleteStep(memory, sctx)
	CompleteStep(memory, sctx)

	want := []models.OnboardingStep{models.StepWelcome, models.StepCourseSelection}
	if len(memory.OnboardingProgress) != len(want) {
		t.Fatalf("progress has %d entries, want %d", len(memory.OnboardingProgress), len(want))
	}
	for i, step := range want {
		if memory.OnboardingProgress[i] != step {
			t.Errorf("progress[%d] = %q, want %q", i, memory.OnboardingProgress[i], step)
		}
	}
	if memory.CurrentStep != models.StepFirstSubmission {
		t.Errorf("CurrentStep = %q, want %q", memory.CurrentStep, models.StepFirstSubmission)
	}
}

func TestCompleteStepEmptyCurrentStep(t *testing.T) {
	memory := &models.ConversationMemory{}

	CompleteStep(memory, StepContext{})

	if memory.CurrentStep != models.StepSignupPrompt {
		t.Errorf("CurrentStep = %q, want %q", memory.CurrentStep, models.StepSignupPrompt)
	}
	if len(memory.OnboardingProgress) != 1 || memory.OnboardingProgress[0] != models.StepWelcome {
		t.Errorf("progress = %v, want [welcome]", memory.OnboardingProgress)
	}
}

func TestCompleteStepNilMemory(t *testing.T) {
	if got := CompleteStep(nil, StepContext{}); got == "" {
		t.Error("nil memory should still return guidance")
	}
}
