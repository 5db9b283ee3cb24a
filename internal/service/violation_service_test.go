package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ujianku/tryout-backend/internal/model"
)

func TestReportViolationAccumulates(t *testing.T) {
	e := newTestEngine()
	pkgID := e.seedPackage(0, singleChoiceQuestion("a", 1))
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)

	for i := 1; i <= 3; i++ {
		report, err := e.violations.Report(ctx, attempt.ID, 7, &model.ReportViolationRequest{Type: "TAB_BLUR"})
		if err != nil {
			t.Fatalf("Report %d: %v", i, err)
		}
		if report.Violations != i {
			t.Errorf("count after report %d = %d", i, report.Violations)
		}
		if report.Disqualified {
			t.Errorf("threshold disabled, report %d must not disqualify", i)
		}
	}

	if len(e.attemptStore.events[attempt.ID]) != 3 {
		t.Errorf("event rows = %d, want 3", len(e.attemptStore.events[attempt.ID]))
	}
}

func TestReportViolationThreshold(t *testing.T) {
	e := newTestEngine()
	q := singleChoiceQuestion("a", 1)
	pkgID := e.seedPackage(4, q)
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)
	e.autosave.Save(ctx, attempt.ID, 7, q.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("a")})

	for i := 1; i <= 3; i++ {
		report, err := e.violations.Report(ctx, attempt.ID, 7, &model.ReportViolationRequest{Type: "FULLSCREEN_EXIT"})
		if err != nil {
			t.Fatalf("Report %d: %v", i, err)
		}
		if report.Disqualified {
			t.Fatalf("report %d below threshold must not disqualify", i)
		}
	}

	// The fourth report crosses the threshold.
	report, err := e.violations.Report(ctx, attempt.ID, 7, &model.ReportViolationRequest{Type: "FULLSCREEN_EXIT"})
	if err != nil {
		t.Fatalf("Report 4: %v", err)
	}
	if !report.Disqualified || report.Violations != 4 {
		t.Fatalf("report 4 = %+v, want disqualified at count 4", report)
	}

	a, _ := e.attemptStore.GetForUser(ctx, attempt.ID, 7)
	if a.Status != model.AttemptStatusDisqualified {
		t.Fatalf("status = %s, want DISQUALIFIED", a.Status)
	}
	if a.Score == nil || *a.Score != 1000 {
		t.Errorf("disqualified attempt keeps its partial score, got %v", a.Score)
	}

	// A fifth report hits a terminal attempt.
	if _, err := e.violations.Report(ctx, attempt.ID, 7, &model.ReportViolationRequest{Type: "TAB_BLUR"}); !errors.Is(err, ErrExamEnded) {
		t.Fatalf("post-disqualification report err = %v, want ErrExamEnded", err)
	}
}

func TestReportViolationZeroThresholdNeverDisqualifies(t *testing.T) {
	e := newTestEngine()
	pkgID := e.seedPackage(0, singleChoiceQuestion("a", 1))
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)

	for i := 0; i < 20; i++ {
		report, err := e.violations.Report(ctx, attempt.ID, 7, &model.ReportViolationRequest{Type: "TAB_BLUR"})
		if err != nil {
			t.Fatalf("Report: %v", err)
		}
		if report.Disqualified {
			t.Fatal("threshold 0 must never disqualify")
		}
	}
}

func TestReportViolationAfterDeadline(t *testing.T) {
	e := newTestEngine()
	pkgID := e.seedPackage(4, singleChoiceQuestion("a", 1))
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)
	e.clock.Advance(2 * time.Hour)

	if _, err := e.violations.Report(ctx, attempt.ID, 7, &model.ReportViolationRequest{Type: "TAB_BLUR"}); !errors.Is(err, ErrExamEnded) {
		t.Fatalf("err = %v, want ErrExamEnded", err)
	}
}
