package web

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sweeney/conveyor-interlock/internal/status"
)

type statusOutput struct {
	Body status.StatusInner
}

func (s *Server) registerStatus(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Interlock status",
	}, func(ctx context.Context, _ *struct{}) (*statusOutput, error) {
		return &statusOutput{Body: status.Build(s.tracker.Snapshot())}, nil
	})
}

// AlarmJSON is the API representation of an alarm.
type AlarmJSON struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

type alarmsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Number of most recent alarms"`
}

type alarmsOutput struct {
	Body struct {
		Alarms []AlarmJSON `json:"alarms"`
	}
}

func (s *Server) registerAlarms(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-alarms",
		Method:      http.MethodGet,
		Path:        "/api/alarms",
		Summary:     "Recent alarms, oldest first",
	}, func(ctx context.Context, in *alarmsInput) (*alarmsOutput, error) {
		out := &alarmsOutput{}
		out.Body.Alarms = []AlarmJSON{}
		if s.alarms == nil {
			return out, nil
		}
		alarms, err := s.alarms.List(ctx, in.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("list alarms", err)
		}
		for _, a := range alarms {
			out.Body.Alarms = append(out.Body.Alarms, AlarmJSON{
				ID:        a.ID,
				Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
				Message:   a.Message,
			})
		}
		return out, nil
	})
}
