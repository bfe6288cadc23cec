// Package service composes the engine's building blocks into the
// operations callers actually invoke: submitting a graded attempt,
// completing a lesson, recording a self-check. Each operation runs
// grading or validation first, then persists its local effects and the
// matching sync-queue entry in one transaction, then opportunistically
// flushes the queue.
package service
