package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/themobileprof/voicepilot/internal/intent"
	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/internal/page"
	"github.com/themobileprof/voicepilot/internal/resolve"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// Stock responses shared with the assistant core.
const (
	// StoppedText is spoken whenever the assistant deactivates.
	StoppedText = "Voice assistant stopped. You can restart by clicking the microphone button."
	// HelpText lists the commands the assistant understands.
	HelpText = "You can say things like 'create account', 'join course', 'submit my work', 'read this page', or 'what should I click'. What would you like to do?"
	// RepeatDefault is spoken when there is nothing to repeat yet.
	RepeatDefault = "I'm here to help you!"
)

// Fallback is the local rule engine. It interprets an utterance with
// nothing but the classifier, the region catalog and the supplied page
// context, so the assistant keeps working when the intent service is
// down. It never returns an error.
type Fallback struct {
	classifier *intent.Classifier
	catalog    *resolve.Catalog
	normalizer *intent.TextNormalizer
	confirms   map[string]bool
}

// NewFallback creates a new local rule engine
func NewFallback(classifier *intent.Classifier, catalog *resolve.Catalog) *Fallback {
	if classifier == nil {
		classifier = intent.NewClassifier()
	}
	if catalog == nil {
		catalog = resolve.NewCatalog()
	}
	return &Fallback{
		classifier: classifier,
		catalog:    catalog,
		normalizer: intent.NewTextNormalizer(),
		confirms:   buildConfirmWords(),
	}
}

func buildConfirmWords() map[string]bool {
	return map[string]bool{
		"yes": true, "yeah": true, "sure": true,
		"okay": true, "ok": true, "confirm": true, "do it": true,
	}
}

// ResolveIntent generates a rule-based response. The error return
// exists only to satisfy the resolver interface; it is always nil.
func (f *Fallback) ResolveIntent(ctx context.Context, req *models.IntentRequest) (*models.IntentResponse, error) {
	memory := req.Memory
	if memory == nil {
		memory = models.DefaultMemory()
	}

	detected := f.classifier.Classify(req.Utterance)
	routeKey := resolve.RouteKey(req.CurrentRoute)

	var resp *models.IntentResponse
	switch detected {
	case models.IntentStop:
		resp = f.respond(detected, StoppedText, nil, 0.95)
	case models.IntentHelp:
		resp = f.respond(detected, HelpText, nil, 0.85)
	case models.IntentRepeat:
		text := memory.LastResponse
		if text == "" {
			text = RepeatDefault
		}
		resp = f.respond(detected, text, nil, 0.9)
	case models.IntentReadPage:
		resp = f.readPage(req)
	case models.IntentFindElement:
		resp = f.findElement(req)
	case models.IntentSignup:
		resp = f.signup(req, routeKey)
	case models.IntentJoinCourse:
		resp = f.joinCourse(req, routeKey)
	case models.IntentSubmitAssignment:
		resp = f.submitAssignment(req, routeKey)
	default:
		resp = f.unknown(req)
	}

	out := memory.Clone()
	out.LastResponse = resp.ResponseText
	out.LastInteraction = time.Now()
	if resp.Intent == models.IntentStop {
		out.CurrentStep = models.StepIdle
	}
	resp.Memory = out

	return resp, nil
}

func (f *Fallback) respond(detected models.Intent, text string, action *models.VoiceAction, confidence float64) *models.IntentResponse {
	return &models.IntentResponse{
		Intent:       detected,
		ResponseText: text,
		Action:       action,
		Confidence:   confidence,
	}
}

func (f *Fallback) highlight(region models.Region, text string, confidence float64, detected models.Intent) *models.IntentResponse {
	return f.respond(detected, text, &models.VoiceAction{
		Type:    models.ActionHighlight,
		Target:  region.Selector,
		Message: region.Description,
	}, confidence)
}

func (f *Fallback) navigate(path, text string, confidence float64, detected models.Intent) *models.IntentResponse {
	return f.respond(detected, text, &models.VoiceAction{
		Type:   models.ActionNavigate,
		Target: path,
	}, confidence)
}

func (f *Fallback) readPage(req *models.IntentRequest) *models.IntentResponse {
	if req.PageContext == nil || req.PageContext.Structure == nil {
		return f.respond(models.IntentReadPage,
			"I can't see the page content from here. Try again once the page finishes loading.", nil, 0.6)
	}
	return f.respond(models.IntentReadPage, page.Summarize(req.PageContext.Structure), nil, 0.85)
}

func (f *Fallback) findElement(req *models.IntentRequest) *models.IntentResponse {
	if region, ok := f.catalog.Match(req.CurrentRoute, req.Utterance); ok {
		text := fmt.Sprintf("I've highlighted %s.", region.Description)
		return f.highlight(region, text, 0.85, models.IntentFindElement)
	}
	return f.respond(models.IntentFindElement,
		"I couldn't find that on this page. Try naming a button or link you can see.", nil, 0.6)
}

// signup guides account creation. On the login page the Google
// sign-in affordance is highlighted in place; on the signup form the
// next empty part of the form is pointed at; anywhere else the user is
// taken to the sign-in page.
func (f *Fallback) signup(req *models.IntentRequest, routeKey string) *models.IntentResponse {
	switch routeKey {
	case resolve.RouteLogin:
		if region, ok := f.catalog.Find(req.CurrentRoute, "google_signin"); ok {
			return f.highlight(region,
				"You can create your account right here. I've highlighted the Google sign-in button; click it to get started.",
				0.95, models.IntentSignup)
		}
	case resolve.RouteSignup:
		filled := 0
		if req.PageContext != nil {
			filled = req.PageContext.FormFilled
		}
		switch {
		case filled >= 100:
			if region, ok := f.catalog.Find(req.CurrentRoute, "signup_button"); ok {
				return f.highlight(region,
					"Your details look complete. Click the highlighted button to create your account.",
					0.85, models.IntentSignup)
			}
		case filled > 0:
			if region, ok := f.catalog.Find(req.CurrentRoute, "password_field"); ok {
				return f.highlight(region,
					"Great start. Now add your password in the highlighted field.",
					0.85, models.IntentSignup)
			}
		default:
			if region, ok := f.catalog.Find(req.CurrentRoute, "email_field"); ok {
				return f.highlight(region,
					"Let's create your account. Start with your email address in the highlighted field.",
					0.85, models.IntentSignup)
			}
		}
	}
	return f.navigate("/login",
		"I'll take you to the sign-in page where you can create your account.",
		0.9, models.IntentSignup)
}

func (f *Fallback) joinCourse(req *models.IntentRequest, routeKey string) *models.IntentResponse {
	switch routeKey {
	case resolve.RouteHome:
		if req.PageContext != nil && !req.PageContext.HasCourses {
			if region, ok := f.catalog.Find(req.CurrentRoute, "create_course_btn"); ok {
				return f.highlight(region,
					"You don't have any courses yet. You can create one with the highlighted button.",
					0.8, models.IntentJoinCourse)
			}
		}
		if region, ok := f.catalog.Find(req.CurrentRoute, "course_cards"); ok {
			return f.highlight(region,
				"Here are the courses you can join. I've highlighted them; click one to see the details.",
				0.85, models.IntentJoinCourse)
		}
	case resolve.RouteCourse:
		if req.PageContext != nil && req.PageContext.IsEnrolled {
			return f.respond(models.IntentJoinCourse,
				"You're already enrolled in this course. Say 'submit' when you're ready to turn in work.",
				nil, 0.8)
		}
		if region, ok := f.catalog.Find(req.CurrentRoute, "join_button"); ok {
			return f.highlight(region,
				"I've highlighted the join button. Click it to enroll in this course.",
				0.85, models.IntentJoinCourse)
		}
	}
	return f.navigate("/",
		"Let's head to your dashboard to find a course.",
		0.8, models.IntentJoinCourse)
}

func (f *Fallback) submitAssignment(req *models.IntentRequest, routeKey string) *models.IntentResponse {
	if routeKey == resolve.RouteCourse {
		if req.PageContext != nil && !req.PageContext.HasTasks {
			return f.respond(models.IntentSubmitAssignment,
				"I don't see any tasks here yet. Check back once your teacher adds them.",
				nil, 0.8)
		}
		if region, ok := f.catalog.Find(req.CurrentRoute, "task_list"); ok {
			return f.highlight(region,
				"Here are your tasks. Pick one and I'll help you submit it.",
				0.85, models.IntentSubmitAssignment)
		}
	}
	return f.navigate("/",
		"Let's find your course first. Which course is the work for?",
		0.75, models.IntentSubmitAssignment)
}

func (f *Fallback) unknown(req *models.IntentRequest) *models.IntentResponse {
	normalized := f.normalizer.Normalize(req.Utterance)
	if f.confirms[normalized] {
		return f.respond(models.IntentUnknown,
			"Great! What would you like to do next? You can say 'help' for ideas.", nil, 0.6)
	}
	display := f.normalizer.Display(req.Utterance)
	return f.respond(models.IntentUnknown,
		fmt.Sprintf("I'm not sure what you want to do with '%s'. You can say 'help' to hear what I can do.", display),
		nil, 0.5)
}

// Ensure Fallback implements IntentResolver interface
var _ interfaces.IntentResolver = (*Fallback)(nil)
