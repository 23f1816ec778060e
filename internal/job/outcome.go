package job

// StageStatus is the result a build or publish collaborator reports.
type StageStatus string

const (
	StatusSuccess StageStatus = "success"
	StatusFailure StageStatus = "failure"
)

// StageOutcome is what a stage produced.
type StageOutcome struct {
	Status StageStatus `json:"status"`
	Stdout string      `json:"stdout"`
	Stderr string      `json:"stderr"`
}

// Succeeded reports whether the stage finished with StatusSuccess.
func (o StageOutcome) Succeeded() bool { return o.Status == StatusSuccess }

// Combined joins stdout and stderr the way they are posted to chat.
func (o StageOutcome) Combined() string { return o.Stdout + "\n\n" + o.Stderr }
