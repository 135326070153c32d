package intent

import "github.com/themobileprof/voicepilot/pkg/models"

// DefaultKeywordSets returns the bundled categories in priority order.
// Stop/control commands come first so an in-progress command can always
// be aborted; generic onboarding categories come last before the
// unknown fallback.
func DefaultKeywordSets() []KeywordSet {
	return []KeywordSet{
		{
			Intent:   models.IntentStop,
			Mode:     MatchLoose,
			Keywords: []string{"stop", "quit", "cancel"},
		},
		{
			Intent: models.IntentSignup,
			Mode:   MatchStrict,
			Keywords: []string{
				"create account",
				"sign up",
				"log in",
				"register",
				"new account",
				"get started",
			},
		},
		{
			Intent: models.IntentReadPage,
			Mode:   MatchStrict,
			Keywords: []string{
				"read this page",
				"what does this page say",
				"describe this page",
				"what's on this page",
				"read the page",
			},
		},
		{
			Intent: models.IntentFindElement,
			Mode:   MatchLoose,
			Keywords: []string{
				"what should i click",
				"how do i add",
				"where is the",
				"find the",
				"show me the",
				"highlight",
			},
		},
		{
			Intent: models.IntentHelp,
			Mode:   MatchStrict,
			Keywords: []string{
				"help",
				"what can i do",
				"guide me",
				"what now",
			},
		},
		{
			Intent: models.IntentRepeat,
			Mode:   MatchStrict,
			Keywords: []string{
				"repeat",
				"say that again",
				"again",
			},
		},
		{
			Intent: models.IntentJoinCourse,
			Mode:   MatchStrict,
			Keywords: []string{
				"join course",
				"join a course",
				"find course",
				"browse courses",
				"enroll",
			},
		},
		{
			Intent: models.IntentSubmitAssignment,
			Mode:   MatchStrict,
			Keywords: []string{
				"submit",
				"assignment",
				"turn in",
				"my task",
			},
		},
	}
}
