package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with notation, dice values, modifier,
// and total, giving every encounter a full roll audit trail.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// Roll rolls count dice with sides faces plus modifier and logs the result.
//
// Precondition: count >= 1; sides >= 2.
// Postcondition: result logged; returns RollResult or error.
func (r *Roller) Roll(count, sides, modifier int) (RollResult, error) {
	result, err := Roll(count, sides, modifier, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("notation", result.Notation()),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}
