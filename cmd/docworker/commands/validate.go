package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docworker/internal/config"
	"git.home.luguber.info/inful/docworker/internal/reporter"
	"git.home.luguber.info/inful/docworker/internal/sanitize"
)

// ValidateCmd implements the 'validate' command. It checks a job with the
// configured branch policy and touches neither the job log nor chat.
type ValidateCmd struct {
	JobSource `embed:""`
}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	j, err := v.Load(cfg.Forge.WebhookSecret)
	if err != nil {
		return err
	}

	s := sanitize.New(reporter.New(nil, nil), sanitize.BranchPolicy{AllowMaster: cfg.Worker.AllowMaster})
	if err := s.ValidateJob(context.Background(), j); err != nil {
		return err
	}
	fmt.Printf("job %s is valid: %s/%s@%s\n", j.ID, j.Payload.RepoOwner, j.RepoName(), j.BranchName())
	return nil
}
