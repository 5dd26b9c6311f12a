package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const SuperRenderPrefix = "SUPER_RENDER:"

var ErrUnknownCommand = errors.New("unknown super render command")

// SuperRenderCommand adjusts a live renderer. Wire form:
// "SUPER_RENDER:<TYPE>:<VALUE>".
type SuperRenderCommand interface {
	Type() string
	Value() string

	superRender()
}

type RenderDistance struct{ Chunks int }

type SimulationDistance struct{ Chunks int }

type FovZoom struct{ Factor float64 }

type LookAhead struct{ Chunks int }

func (RenderDistance) Type() string     { return "RENDER_DISTANCE" }
func (SimulationDistance) Type() string { return "SIMULATION_DISTANCE" }
func (FovZoom) Type() string            { return "FOV_ZOOM" }
func (LookAhead) Type() string          { return "LOOK_AHEAD" }

func (c RenderDistance) Value() string     { return strconv.Itoa(c.Chunks) }
func (c SimulationDistance) Value() string { return strconv.Itoa(c.Chunks) }
func (c FovZoom) Value() string            { return formatFloat(c.Factor) }
func (c LookAhead) Value() string          { return strconv.Itoa(c.Chunks) }

func (RenderDistance) superRender()     {}
func (SimulationDistance) superRender() {}
func (FovZoom) superRender()            {}
func (LookAhead) superRender()          {}

func EncodeSuperRender(cmd SuperRenderCommand) []byte {
	return []byte(SuperRenderPrefix + cmd.Type() + ":" + cmd.Value())
}

// IsSuperRender reports whether a streamed payload is a command rather than
// a render task.
func IsSuperRender(data []byte) bool {
	return strings.HasPrefix(string(data), SuperRenderPrefix)
}

// ParseSuperRender decodes a command. Unknown types yield ErrUnknownCommand
// so that receivers can log and skip them.
func ParseSuperRender(data []byte) (SuperRenderCommand, error) {
	rest, ok := strings.CutPrefix(string(data), SuperRenderPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing prefix", ErrMalformedTask)
	}

	kind, value, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing value", ErrMalformedTask)
	}

	switch kind {
	case "RENDER_DISTANCE", "SIMULATION_DISTANCE", "LOOK_AHEAD":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTask, kind, err)
		}

		switch kind {
		case "RENDER_DISTANCE":
			return RenderDistance{Chunks: n}, nil
		case "SIMULATION_DISTANCE":
			return SimulationDistance{Chunks: n}, nil
		default:
			return LookAhead{Chunks: n}, nil
		}
	case "FOV_ZOOM":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTask, kind, err)
		}

		return FovZoom{Factor: f}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, kind)
	}
}
