package api

import (
	"encoding/json"

	"rrtnav/follower"
	"rrtnav/geometry"
	"rrtnav/planner"
	"rrtnav/scenario"
	"rrtnav/sim"
)

// PlanResponse reports one planning attempt. Success is false when no path was found; the id
// still refers to the explored tree.
type PlanResponse struct {
	ID              string           `json:"id,omitempty"`
	Success         bool             `json:"success"`
	Message         string           `json:"message,omitempty"`
	Raw             []geometry.Point `json:"raw,omitempty"`
	Compacted       []geometry.Point `json:"compacted,omitempty"`
	RawLength       float64          `json:"rawLength,omitempty"`
	CompactedLength float64          `json:"compactedLength,omitempty"`
	Nodes           int              `json:"nodes"`
	Iterations      int              `json:"iterations"`
	Rejected        int              `json:"rejected"`
	Attempts        int              `json:"attempts"`
	ElapsedMs       float64          `json:"elapsedMs"`
}

// TreeResponse lists the explored tree edges and the obstacles for display.
type TreeResponse struct {
	ID        string                  `json:"id"`
	Lines     [][2]geometry.Point     `json:"lines"`
	NumNodes  int                     `json:"numNodes"`
	NumEdges  int                     `json:"numEdges"`
	Width     float64                 `json:"width"`
	Height    float64                 `json:"height"`
	Obstacles []scenario.ObstacleSpec `json:"obstacles"`
}

// SimulateRequest is a scenario plus a tick budget. Without a scenario the built-in course is run.
type SimulateRequest struct {
	Scenario json.RawMessage `json:"scenario,omitempty"`
	MaxTicks int             `json:"maxTicks,omitempty"`
	// Every keeps one frame in Every for the trajectory; zero keeps all of them.
	Every int `json:"every,omitempty"`
}

// SimulateResponse is the plan and the trajectory the follower drove.
type SimulateResponse struct {
	Plan       PlanResponse        `json:"plan"`
	Status     string              `json:"status"`
	Ticks      int                 `json:"ticks"`
	Final      follower.RobotState `json:"final"`
	Trajectory []sim.Frame         `json:"trajectory,omitempty"`
	Message    string              `json:"message,omitempty"`
}

// StreamMessage is one websocket message on a plan stream.
type StreamMessage struct {
	Type  string     `json:"type"` // "frame", "done" or "error"
	Frame *sim.Frame `json:"frame,omitempty"`
	Ticks int        `json:"ticks,omitempty"`
	Error string     `json:"error,omitempty"`
}

func newPlanResponse(res *planner.Result, attempts int, err error) PlanResponse {
	resp := PlanResponse{Attempts: attempts}
	if err != nil {
		resp.Message = err.Error()
	}
	if res == nil {
		return resp
	}
	resp.Success = res.Found()
	resp.Nodes = res.Tree.Len()
	resp.Iterations = res.Iterations
	resp.Rejected = res.Rejected
	resp.ElapsedMs = float64(res.Elapsed.Microseconds()) / 1000
	if resp.Success {
		resp.Raw = res.Raw
		resp.Compacted = res.Compacted
		resp.RawLength = res.Raw.Length()
		resp.CompactedLength = res.Compacted.Length()
	}
	return resp
}
