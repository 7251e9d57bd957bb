package deploy

import "fmt"

// Stage is a step in the fixed deployment sequence. Stages advance strictly
// one at a time; any failure terminates the run at the current stage.
type Stage int

const (
	StageIdle Stage = iota
	StageDirsEnsured
	StageOldStopped
	StageBackedUp
	StageUploaded
	StageStarted
	StageVerified
)

var stageNames = map[Stage]string{
	StageIdle:        "idle",
	StageDirsEnsured: "directories-ensured",
	StageOldStopped:  "old-process-stopped",
	StageBackedUp:    "backed-up",
	StageUploaded:    "artifact-uploaded",
	StageStarted:     "process-started",
	StageVerified:    "verified",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// advance moves the run to the next stage. Skipping a stage or moving
// backwards indicates an orchestrator bug and is rejected.
func (r *Run) advance(to Stage) error {
	if r.Outcome != OutcomePending {
		return fmt.Errorf("run %s already finished (%s)", r.ID, r.Outcome)
	}
	if to != r.Stage+1 {
		return fmt.Errorf("invalid stage transition: %s -> %s", r.Stage, to)
	}
	r.Stage = to
	return nil
}
