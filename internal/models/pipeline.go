package models

import (
	"sort"
	"time"
)

// Stage is one step of a pipeline. Order drives board and analytics ordering;
// equal orders keep their position in Pipeline.Stages.
type Stage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type Pipeline struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Stages    []Stage   `json:"stages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageInput is a stage as supplied by a client. ID and Order are optional.
type StageInput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order *int   `json:"order"`
}

// PipelineUpdate is a partial update; nil fields are left untouched.
type PipelineUpdate struct {
	Name   *string       `json:"name"`
	Stages *[]StageInput `json:"stages"`
}

// OrderedStages returns the stages sorted by Order, ties kept in insertion order.
func (p *Pipeline) OrderedStages() []Stage {
	out := make([]Stage, len(p.Stages))
	copy(out, p.Stages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// FirstStage is the stage a new deal lands in when none is requested.
func (p *Pipeline) FirstStage() (Stage, bool) {
	ordered := p.OrderedStages()
	if len(ordered) == 0 {
		return Stage{}, false
	}
	return ordered[0], true
}

func (p *Pipeline) Stage(id string) (Stage, bool) {
	for _, s := range p.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func (p *Pipeline) HasStage(id string) bool {
	_, ok := p.Stage(id)
	return ok
}

// RemovedStages lists the IDs present in p but absent from next.
func (p *Pipeline) RemovedStages(next []Stage) []string {
	keep := make(map[string]struct{}, len(next))
	for _, s := range next {
		keep[s.ID] = struct{}{}
	}
	var removed []string
	for _, s := range p.Stages {
		if _, ok := keep[s.ID]; !ok {
			removed = append(removed, s.ID)
		}
	}
	return removed
}
