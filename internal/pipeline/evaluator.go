package pipeline

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// calibrationBins is the number of probability buckets (deciles).
const calibrationBins = 10

// probEpsilon clamps predicted probabilities before taking logs so a
// fully confident wrong prediction scores finitely.
const probEpsilon = 1e-15

// EvaluationRecord is the outcome of scoring one prediction against its
// final game.
type EvaluationRecord struct {
	PredictionID  string
	ModelID       string
	GameID        string
	HomeWon       bool
	HomeWinProb   float64
	LogLoss       float64
	Brier         float64
	SpreadError   float64
	TotalError    float64
	WinnerCorrect bool
	EvaluatedAt   time.Time
}

// Evaluator scores stored predictions against final outcomes and folds
// the results into a model's rolling metrics.
type Evaluator struct {
	now func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// Evaluate scores one prediction. The game must be FINAL; a prediction
// that already carries an evaluation timestamp returns
// ErrAlreadyEvaluated so re-runs are no-ops.
func (e *Evaluator) Evaluate(pred *models.Prediction, game *models.Game) (*EvaluationRecord, error) {
	if pred.EvaluatedAt != nil {
		return nil, ErrAlreadyEvaluated
	}
	if !game.IsFinal() {
		return nil, fmt.Errorf("game %s is not final (status %s)", game.ID, game.Status)
	}
	if pred.GameID != game.ID {
		return nil, fmt.Errorf("prediction %s is for game %s, not %s", pred.ID, pred.GameID, game.ID)
	}

	homeWon := game.HomeWon()

	p := pred.HomeWinProb
	if p < probEpsilon {
		p = probEpsilon
	} else if p > 1-probEpsilon {
		p = 1 - probEpsilon
	}

	outcome := 0.0
	if homeWon {
		outcome = 1.0
	}

	rec := &EvaluationRecord{
		PredictionID:  pred.ID,
		ModelID:       pred.ModelID,
		GameID:        game.ID,
		HomeWon:       homeWon,
		HomeWinProb:   pred.HomeWinProb,
		LogLoss:       -(outcome*math.Log(p) + (1-outcome)*math.Log(1-p)),
		Brier:         (pred.HomeWinProb - outcome) * (pred.HomeWinProb - outcome),
		SpreadError:   math.Abs(pred.SpreadPred - float64(game.Margin())),
		TotalError:    math.Abs(pred.TotalPred - float64(game.Total())),
		WinnerCorrect: (pred.HomeWinProb >= 0.5) == homeWon,
		EvaluatedAt:   e.now(),
	}
	return rec, nil
}

// Aggregate folds newly evaluated records into a model's rolling
// metrics without recomputing over history: each mean is updated from
// its previous value, the evaluated count, and the batch. The input
// metrics object is not mutated.
func (e *Evaluator) Aggregate(existing *models.EvaluationMetrics, records []*EvaluationRecord) *models.EvaluationMetrics {
	out := cloneMetrics(existing)
	if len(records) == 0 {
		out.UpdatedAt = e.now()
		return out
	}

	logLosses := make([]float64, len(records))
	briers := make([]float64, len(records))
	spreadErrs := make([]float64, len(records))
	totalErrs := make([]float64, len(records))
	var correct float64

	for i, rec := range records {
		logLosses[i] = rec.LogLoss
		briers[i] = rec.Brier
		spreadErrs[i] = rec.SpreadError
		totalErrs[i] = rec.TotalError
		if rec.WinnerCorrect {
			correct++
		}

		bin := probBin(rec.HomeWinProb)
		out.CalibrationBins[bin].Count++
		out.CalibrationBins[bin].ProbSum += rec.HomeWinProb
		if rec.HomeWon {
			out.CalibrationBins[bin].WinCount++
		}
	}

	n := float64(len(records))
	prev := float64(out.Count)
	total := prev + n

	out.LogLoss = (out.LogLoss*prev + stat.Mean(logLosses, nil)*n) / total
	out.BrierScore = (out.BrierScore*prev + stat.Mean(briers, nil)*n) / total
	out.SpreadMAE = (out.SpreadMAE*prev + stat.Mean(spreadErrs, nil)*n) / total
	out.TotalMAE = (out.TotalMAE*prev + stat.Mean(totalErrs, nil)*n) / total
	out.Accuracy = (out.Accuracy*prev + correct) / total
	out.Count = int64(total)
	out.CalibrationError = expectedCalibrationError(out.CalibrationBins)
	out.UpdatedAt = e.now()

	if out.ModelID == "" {
		out.ModelID = records[0].ModelID
	}

	return out
}

// expectedCalibrationError is the bin-count-weighted mean gap between
// predicted probability and observed win rate across the deciles.
func expectedCalibrationError(bins []models.CalBin) float64 {
	var total int64
	for _, b := range bins {
		total += b.Count
	}
	if total == 0 {
		return 0
	}

	var ece float64
	for _, b := range bins {
		if b.Count == 0 {
			continue
		}
		meanProb := b.ProbSum / float64(b.Count)
		winRate := float64(b.WinCount) / float64(b.Count)
		ece += float64(b.Count) / float64(total) * math.Abs(meanProb-winRate)
	}
	return ece
}

func probBin(p float64) int {
	bin := int(p * calibrationBins)
	if bin >= calibrationBins {
		bin = calibrationBins - 1
	}
	if bin < 0 {
		bin = 0
	}
	return bin
}

func cloneMetrics(m *models.EvaluationMetrics) *models.EvaluationMetrics {
	out := &models.EvaluationMetrics{}
	if m != nil {
		*out = *m
	}
	bins := make([]models.CalBin, calibrationBins)
	copy(bins, out.CalibrationBins)
	out.CalibrationBins = bins
	return out
}
