package workers

import (
	"math"

	"go.uber.org/zap"

	"github.com/mindplus/offloader/models"
)

const (
	threatScanRadius = 32
	interestPoints   = 20
	pathSteps        = 16
	moveThreshold    = 0.25
)

// Decide is the placeholder AI: it scores the surroundings for threats and
// walks a short greedy path, moving along it when the threat is high
// enough.
func Decide(task models.AITask) models.AIResult {
	if threat(task) < moveThreshold {
		return models.AIResult{TargetX: task.PosX, TargetY: task.PosY, TargetZ: task.PosZ}
	}

	x, z := task.PosX, task.PosZ
	for i := 0; i < pathSteps; i++ {
		x, z = step(task, x, z)
	}

	return models.AIResult{ShouldMove: true, TargetX: x, TargetY: task.PosY, TargetZ: z}
}

func threat(task models.AITask) float64 {
	total := 0.0

	for i := 0; i < interestPoints; i++ {
		angle := float64(i) / interestPoints * 2 * math.Pi
		sx := task.PosX + math.Cos(angle)*threatScanRadius
		sz := task.PosZ + math.Sin(angle)*threatScanRadius

		total += math.Abs(math.Sin(sx*0.1+sz*0.1) * math.Cos(sx*0.05))
	}

	return total / interestPoints
}

// step moves one block in the cheapest of eight directions.
func step(task models.AITask, x, z float64) (float64, float64) {
	bestX, bestZ, bestCost := x, z, math.MaxFloat64

	for dir := 0; dir < 8; dir++ {
		angle := float64(dir) / 8 * 2 * math.Pi
		cx, cz := x+math.Cos(angle), z+math.Sin(angle)

		terrain := math.Sin(cx*0.2) * math.Cos(cz*0.2) * 2
		distance := math.Hypot(cx-task.PosX, cz-task.PosZ)

		if cost := terrain + distance*0.1; cost < bestCost {
			bestX, bestZ, bestCost = cx, cz, cost
		}
	}

	return bestX, bestZ
}

func handleAI(log *zap.Logger) func([]byte) error {
	return func(data []byte) error {
		task, err := models.DecodeAITask(data)
		if err != nil {
			return err
		}

		result := Decide(task)

		log.Debug("processed entity",
			zap.Int32("entity", task.EntityID),
			zap.String("type", task.EntityType),
			zap.Bool("move", result.ShouldMove),
		)

		return nil
	}
}

// handleChunk consumes preload and world generation requests.
func handleChunk(kind models.WorkerKind, log *zap.Logger) func([]byte) error {
	return func(data []byte) error {
		task, err := models.DecodeTask(data)
		if err != nil {
			return err
		}

		log.Debug("processed chunk", zap.Stringer("worker", kind), zap.String("chunk", task.Key()))

		return nil
	}
}
