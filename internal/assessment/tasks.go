package assessment

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// GenerateTask asks the oracle for a three-part task. It never fails: any
// oracle problem, including a missing field, yields FallbackTask.
func (e Engine) GenerateTask(ctx context.Context, req domain.TaskRequest) (domain.Task, error) {
	var out domain.Task
	err := e.askJSON(ctx, opTask, taskPrompt(req), nil, &out)
	if err == nil && (strings.TrimSpace(out.Name) == "" || strings.TrimSpace(out.Description) == "") {
		err = fmt.Errorf("op=%s: %w", opTask, domain.ErrInvalidTaskStructure)
	}
	if err == nil {
		return out, nil
	}
	fallbackUsed(ctx, opTask, err)
	return FallbackTask(req.JobTitle, req.RequiredSkills), nil
}

// FallbackTask builds a generic three-part task from the job title and
// the first three required skills.
func FallbackTask(jobTitle string, skills []string) domain.Task {
	first := "the required skills"
	if len(skills) > 0 {
		first = skills[0]
	}
	top := skills[:min(3, len(skills))]
	topText := strings.Join(top, " and ")
	if topText == "" {
		topText = first
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are applying for the role of %s. The key skills for this position are: %s.\n\n", jobTitle, strings.Join(skills, ", "))
	b.WriteString("Please explain in detail:\n\n")
	fmt.Fprintf(&b, "1. How would you approach building a real-world project that uses %s? Describe your architecture decisions, the tools you would choose, and why.\n\n", first)
	fmt.Fprintf(&b, "2. What are common challenges when working with %s? How do you handle them in practice?\n\n", topText)
	b.WriteString("3. Describe a past project or scenario where you applied these skills. What was the outcome?\n\n")
	b.WriteString("Be specific, use examples, and show depth of understanding. Your answer is evaluated on clarity, technical accuracy and practical reasoning.")

	return domain.Task{
		Name:        jobTitle + " Practical Assessment",
		Description: b.String(),
	}
}
