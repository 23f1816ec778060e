// Package errors provides the classified error type used across docworker.
//
// Every failure a push job can end in is a *ClassifiedError with a category
// that callers branch on instead of comparing against shared error values:
//
//   - CategoryValidation: the job record is malformed or carries unsafe names
//   - CategoryPolicy: the job is well formed but not allowed (master branch)
//   - CategoryTimeout: a stage exceeded its wall-clock budget
//   - CategoryStage: the build or publish collaborator reported failure
//
// Errors are built with a fluent API and carry structured context:
//
//	err := errors.ValidationError("job not valid").
//		WithContext("job_id", j.ID).
//		WithContext("field", "repoName").
//		Build()
package errors
