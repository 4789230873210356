package domain

import (
	"testing"
	"time"
)

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		completed, total int
		want             float64
	}{
		{0, 0, 0},
		{0, 5, 0},
		{5, 5, 100},
		{1, 4, 25},
		{3, 4, 75},
	}
	for _, c := range cases {
		if got := CompletionRate(c.completed, c.total); got != c.want {
			t.Errorf("CompletionRate(%d, %d) = %v, want %v", c.completed, c.total, got, c.want)
		}
	}
}

func TestEmailValidation(t *testing.T) {
	valid := []string{"a@b.co", "dev.team+tag@example.com", "x@sub.domain.org"}
	invalid := []string{"", "plain", "@no-local.com", "no-domain@", "two@@example.com", "spaces in@example.com"}

	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestSlugValidation(t *testing.T) {
	valid := []string{"acme", "test-org", "org-123"}
	invalid := []string{"", "Test-Org", "spaces here", "trailing-", "-leading", "under_score"}

	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestProjectValidate(t *testing.T) {
	p := &Project{OrganizationID: "org", Name: "P", Status: ProjectStatusPlanning}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid project rejected: %v", err)
	}

	p.Status = "archived"
	err := p.Validate()
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	p.Status = ProjectStatusActive
	p.Name = ""
	if err := p.Validate(); err == nil {
		t.Fatalf("expected validation error for empty name")
	}
}

func TestTaskValidate(t *testing.T) {
	task := &Task{ProjectID: "p", Title: "T", Status: TaskStatusTodo, Priority: TaskPriorityMedium}
	if err := task.Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	task.AssigneeEmail = "bogus"
	if err := task.Validate(); err == nil {
		t.Fatalf("expected validation error for bad assignee email")
	}
	task.AssigneeEmail = ""

	task.Priority = "asap"
	if err := task.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown priority")
	}
}

func TestCommentValidate(t *testing.T) {
	c := &TaskComment{TaskID: "t", Content: "hi", AuthorEmail: "a@b.co"}
	if err := c.Validate(); err != nil {
		t.Fatalf("valid comment rejected: %v", err)
	}

	c.AuthorEmail = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("author email is required")
	}
}

func TestPatchAppliesOnlyPresentFields(t *testing.T) {
	due := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	task := Task{Title: "T", Description: "D", Status: TaskStatusTodo, Priority: TaskPriorityMedium}

	status := TaskStatusBlocked
	patch := TaskPatch{Status: &status, DueDate: &due}
	patch.Apply(&task)

	if task.Status != TaskStatusBlocked || task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("present fields not applied: %+v", task)
	}
	if task.Title != "T" || task.Description != "D" || task.Priority != TaskPriorityMedium {
		t.Fatalf("absent fields were touched: %+v", task)
	}
}
