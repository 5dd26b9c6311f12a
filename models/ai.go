package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AITask describes one entity whose decision making is offloaded to the
// AI worker: "<id>,<type>,<x>,<y>,<z>".
type AITask struct {
	EntityID   int32   `json:"entityId"`
	EntityType string  `json:"entityType"`
	PosX       float64 `json:"x"`
	PosY       float64 `json:"y"`
	PosZ       float64 `json:"z"`
}

func (t AITask) Encode() []byte {
	return []byte(strings.Join([]string{
		strconv.FormatInt(int64(t.EntityID), 10),
		t.EntityType,
		formatFloat(t.PosX),
		formatFloat(t.PosY),
		formatFloat(t.PosZ),
	}, ","))
}

func DecodeAITask(data []byte) (AITask, error) {
	parts := strings.Split(string(data), ",")
	if len(parts) != 5 {
		return AITask{}, fmt.Errorf("%w: expected 5 fields, got %d", ErrMalformedTask, len(parts))
	}

	id, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return AITask{}, fmt.Errorf("%w: entity id: %v", ErrMalformedTask, err)
	}

	pos, err := parseFloats(parts[2:])
	if err != nil {
		return AITask{}, fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}

	return AITask{
		EntityID:   int32(id),
		EntityType: parts[1],
		PosX:       pos[0],
		PosY:       pos[1],
		PosZ:       pos[2],
	}, nil
}

// AIResult is the decision for an entity: "<move>,<x>,<y>,<z>".
type AIResult struct {
	ShouldMove bool    `json:"shouldMove"`
	TargetX    float64 `json:"x"`
	TargetY    float64 `json:"y"`
	TargetZ    float64 `json:"z"`
}

func (r AIResult) Encode() []byte {
	return []byte(strings.Join([]string{
		strconv.FormatBool(r.ShouldMove),
		formatFloat(r.TargetX),
		formatFloat(r.TargetY),
		formatFloat(r.TargetZ),
	}, ","))
}

func DecodeAIResult(data []byte) (AIResult, error) {
	parts := strings.Split(string(data), ",")
	if len(parts) != 4 {
		return AIResult{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedResult, len(parts))
	}

	move, err := strconv.ParseBool(parts[0])
	if err != nil {
		return AIResult{}, fmt.Errorf("%w: move: %v", ErrMalformedResult, err)
	}

	target, err := parseFloats(parts[1:])
	if err != nil {
		return AIResult{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	return AIResult{
		ShouldMove: move,
		TargetX:    target[0],
		TargetY:    target[1],
		TargetZ:    target[2],
	}, nil
}

func parseFloats(parts []string) ([]float64, error) {
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return values, nil
}
