package agent

import (
	"github.com/themobileprof/voicepilot/pkg/models"
)

// StepContext carries the session facts the onboarding mapping
// branches on.
type StepContext struct {
	Authenticated bool
}

var (
	stepInstructions = buildInstructions()
	stepCompletions  = buildCompletions()
)

func buildInstructions() map[models.OnboardingStep]string {
	return map[models.OnboardingStep]string{
		models.StepWelcome:         "Say 'create account' to get started, 'read this page' to hear what's here, or 'what should I click' if you're stuck.",
		models.StepSignupPrompt:    "Say 'create account' and I'll take you to the signup page.",
		models.StepSignupForm:      "Fill in your email and password, then find the sign up button. Say 'what should I click' if you get stuck.",
		models.StepCourseSelection: "Say 'join course' and I'll show you what's available.",
		models.StepFirstSubmission: "Open a task and say 'submit my work' when you're ready.",
		models.StepCompleted:       "You're all set. Ask me for help anytime.",
		models.StepIdle:            "Click the microphone button and say 'help' to get started again.",
	}
}

func buildCompletions() map[models.OnboardingStep]string {
	return map[models.OnboardingStep]string{
		models.StepWelcome:         "Great, let's get you set up.",
		models.StepSignupPrompt:    "Heading to the signup page.",
		models.StepSignupForm:      "Your account is ready.",
		models.StepCourseSelection: "You've joined your first course.",
		models.StepFirstSubmission: "Your first task is in. Well done!",
		models.StepCompleted:       "You've finished onboarding.",
		models.StepIdle:            "Welcome back.",
	}
}

// Next returns the step that follows step under sctx. The mapping is
// total: steps it does not recognize restart the flow at welcome. An
// authenticated user skips the account-creation steps entirely.
func Next(step models.OnboardingStep, sctx StepContext) models.OnboardingStep {
	switch step {
	case models.StepWelcome:
		if sctx.Authenticated {
			return models.StepCourseSelection
		}
		return models.StepSignupPrompt
	case models.StepSignupPrompt:
		return models.StepSignupForm
	case models.StepSignupForm:
		return models.StepCourseSelection
	case models.StepCourseSelection:
		return models.StepFirstSubmission
	case models.StepFirstSubmission:
		return models.StepCompleted
	case models.StepCompleted:
		return models.StepCompleted
	case models.StepIdle:
		return models.StepWelcome
	default:
		return models.StepWelcome
	}
}

// Instructions returns the guidance spoken when the user asks for help
// at step. Unknown steps get the welcome guidance.
func Instructions(step models.OnboardingStep) string {
	if text, ok := stepInstructions[step]; ok {
		return text
	}
	return stepInstructions[models.StepWelcome]
}

// CompleteStep marks memory's current step done: it appends the step
// to the progress trail, advances to the next step, and returns the
// success phrase plus the new step's guidance.
func CompleteStep(memory *models.ConversationMemory, sctx StepContext) string {
	if memory == nil {
		return Instructions(models.StepWelcome)
	}
	done := memory.CurrentStep
	if done == "" {
		done = models.StepWelcome
	}
	next := Next(done, sctx)
	memory.OnboardingProgress = append(memory.OnboardingProgress, done)
	memory.CurrentStep = next

	phrase, ok := stepCompletions[done]
	if !ok {
		phrase = stepCompletions[models.StepWelcome]
	}
	return phrase + " " + Instructions(next)
}
