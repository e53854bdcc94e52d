package agents

import (
	"context"
	"fmt"
	"math"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/dispatch"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

// Virtue names recorded by lesson steps.
const (
	VirtueCuriosity = "curiosity"
	VirtuePatience  = "patience"
	VirtueHonesty   = "honesty"
)

const (
	startCuriosity  = 0.1
	gradeCuriosity  = 0.05
	gradeHonesty    = 0.1
	maxMasteryDelta = 0.2
	masteryPerLevel = 0.1
	patientAfter    = 300
	patienceLong    = 0.15
	patienceShort   = 0.05
)

type topic struct {
	name string
	caps *capability.Client
}

func topicOperations(deps Deps) (string, wire.Schema, []dispatch.Operation) {
	t := topic{name: deps.Topic, caps: deps.Client}
	needStudent := dispatch.Require("missing student id", "StudentID")
	return deps.Topic, wire.Schema{wire.KeyMasteryDelta, wire.KeyVirtueDeltas}, []dispatch.Operation{
		{
			Name:     "start_lesson",
			Requires: []dispatch.Requirement{needStudent},
			Handle:   t.startLesson,
		},
		{
			Name:     "grade_submission",
			Requires: []dispatch.Requirement{
				needStudent,
				dispatch.Require("missing lesson data",
					"LessonData", "LessonData.Concept", "LessonData.Difficulty", "LessonData.TimeSpent"),
			},
			Handle:   t.gradeSubmission,
		},
	}
}

func (t topic) startLesson(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	t.caps.RecordVirtue(ctx, *req.StudentID, VirtueCuriosity, startCuriosity)

	return &wire.Response{
		VirtueDeltas: wire.VirtueDeltas{Curiosity: startCuriosity},
		Message:      fmt.Sprintf("Lesson %s started", t.name),
	}, nil
}

func (t topic) gradeSubmission(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	studentID, lesson := *req.StudentID, req.LessonData

	mastery := MasteryDelta(*lesson.Difficulty)
	patience := PatienceDelta(*lesson.TimeSpent)

	t.caps.RecordVirtue(ctx, studentID, VirtuePatience, patience)
	t.caps.RecordVirtue(ctx, studentID, VirtueHonesty, gradeHonesty)

	return &wire.Response{
		MasteryDelta: mastery,
		VirtueDeltas: wire.VirtueDeltas{
			Curiosity: gradeCuriosity,
			Patience:  patience,
			Honesty:   gradeHonesty,
		},
		Message: fmt.Sprintf("Submission graded for %s: mastery delta %.4f", t.name, mastery),
	}, nil
}

// MasteryDelta is a tenth of the difficulty, capped at 0.2.
func MasteryDelta(difficulty float64) float64 {
	return math.Min(maxMasteryDelta, difficulty*masteryPerLevel)
}

// PatienceDelta rewards submissions that took more than 300 time units.
func PatienceDelta(timeSpent uint64) float64 {
	if timeSpent > patientAfter {
		return patienceLong
	}
	return patienceShort
}
