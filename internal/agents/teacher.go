package agents

import (
	"context"
	"fmt"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/dispatch"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

type teacher struct {
	caps  *capability.Client
	newID func() (string, error)
}

func teacherOperations(deps Deps) (string, wire.Schema, []dispatch.Operation) {
	t := teacher{caps: deps.Client, newID: deps.NewID}
	return Teacher, wire.Schema{wire.KeyLessonID}, []dispatch.Operation{
		{
			Name: "create_lesson",
			Requires: []dispatch.Requirement{
				dispatch.Require("missing concept", "Concept"),
				dispatch.Require("missing class id", "ClassID"),
				dispatch.Require("missing content", "Content"),
			},
			Handle: t.createLesson,
		},
	}
}

// createLesson names the lesson itself and writes that id in the mutation,
// so the id in the response never depends on parsing the host's answer.
func (t teacher) createLesson(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	lessonID, err := t.newID()
	if err != nil {
		return nil, wire.NewError(wire.CodeInternal, wire.MsgInternal, err)
	}
	concept, classID := *req.Concept, *req.ClassID

	if _, err := t.caps.GraphWrite(ctx, "create_lesson", capability.Fields{
		"lesson_id": lessonID,
		"concept":   concept,
		"class_id":  classID,
		"content":   *req.Content,
	}); err != nil {
		return nil, err
	}

	return &wire.Response{
		LessonID: lessonID,
		Message:  fmt.Sprintf("Lesson created for concept: %s in class: %s", concept, classID),
	}, nil
}
