// Package pipeline runs a validated GitHub push job through its stages:
// build, publish to staging, and artifact enumeration.
//
// Stages run strictly in order and the run stops at the first failure. Build
// and publish each run under a wall-clock budget; when it elapses the stage's
// context is canceled so the collaborator can stop its process, and the run
// fails with a timeout. Nothing is retried here; redelivery belongs to the
// queue that handed over the job.
package pipeline
