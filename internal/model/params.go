package model

// Params is a scaled parameter set for one session. The Mode records which
// scaling produced the counts so downstream components never have to guess.
// Scaling never touches the condition table; it only changes per-phase
// counts.
type Params struct {
	Mode                     Mode `yaml:"mode" json:"mode"`
	SARTTrialsPerBlock       int  `yaml:"sart_trials_per_block" json:"sart_trials_per_block"`
	VeltenStatementsPerPhase int  `yaml:"velten_statements_per_phase" json:"velten_statements_per_phase"`
}

// Validate rejects non-positive counts. A zero or negative count would
// produce an unrunnable plan, so it is caught at setup time.
func (p Params) Validate() error {
	if !p.Mode.Valid() {
		return NewConfigurationError("params.mode", "invalid mode %q", string(p.Mode))
	}
	if p.SARTTrialsPerBlock <= 0 {
		return NewConfigurationError("params.sart_trials_per_block",
			"must be positive, got %d", p.SARTTrialsPerBlock)
	}
	if p.VeltenStatementsPerPhase <= 0 {
		return NewConfigurationError("params.velten_statements_per_phase",
			"must be positive, got %d", p.VeltenStatementsPerPhase)
	}
	return nil
}
