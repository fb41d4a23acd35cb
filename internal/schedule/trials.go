package schedule

import (
	"hash/fnv"
	"math/rand"

	"github.com/lionking1994/moodsart/internal/model"
)

// noGoPercent is the proportion of no-go (target digit) trials per block.
const noGoPercent = 15

// TargetDigit is the no-go stimulus in response-inhibition blocks.
const TargetDigit = 3

// Trial is one SART stimulus presentation.
type Trial struct {
	Number   int    `json:"number"` // 1-based within the block
	Digit    int    `json:"digit"`
	Position string `json:"position"` // "left" or "right"
	// NoGo is true when no response is expected: the digit is the target
	// and the block is response-inhibition.
	NoGo bool `json:"no_go"`
}

// Trials generates the digit sequence for one SART block: exactly 15% of
// trials (rounded down) present the target digit, the remainder distribute
// the other digits 0-9 evenly, and the whole sequence is shuffled with the
// given seed. The output is fully determined by (trialCount, blockType,
// seed).
func Trials(trialCount int, blockType model.BlockType, seed int64) ([]Trial, error) {
	if trialCount < 1 {
		return nil, model.NewConfigurationError("trial_count",
			"must be positive, got %d", trialCount)
	}

	noGo := trialCount * noGoPercent / 100
	digits := make([]int, 0, trialCount)
	for i := 0; i < noGo; i++ {
		digits = append(digits, TargetDigit)
	}
	var others []int
	for d := 0; d <= 9; d++ {
		if d != TargetDigit {
			others = append(others, d)
		}
	}
	for i := 0; i < trialCount-noGo; i++ {
		digits = append(digits, others[i%len(others)])
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(digits), func(i, j int) {
		digits[i], digits[j] = digits[j], digits[i]
	})

	trials := make([]Trial, trialCount)
	for i, d := range digits {
		pos := "left"
		if rng.Intn(2) == 1 {
			pos = "right"
		}
		trials[i] = Trial{
			Number:   i + 1,
			Digit:    d,
			Position: pos,
			NoGo:     d == TargetDigit && blockType == model.BlockResponseInhibition,
		}
	}
	return trials, nil
}

// DeriveSeed produces the per-block trial seed from the participant id and
// block number, so a rebuilt plan reproduces the same sequences without
// storing them.
func DeriveSeed(participantID string, blockNumber int) int64 {
	h := fnv.New64a()
	h.Write([]byte(participantID))
	h.Write([]byte{byte(blockNumber)})
	return int64(h.Sum64())
}
